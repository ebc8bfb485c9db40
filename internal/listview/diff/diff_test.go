package diff

import (
	"testing"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/geom"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/charmbracelet/listview/internal/listview/realize"
	"github.com/stretchr/testify/require"
)

func containers(r edit.Range) map[int]*realize.Container {
	out := make(map[int]*realize.Container)
	for i := r.Start; i < r.End; i++ {
		out[i] = &realize.Container{ID: uint64(i + 1), Key: string(rune('a' + i))}
	}
	return out
}

func rowMeasure() Measurer {
	return MeasureFunc(func(_ entity.Kind, i int) geom.Rect {
		return geom.Rect{Y: i, W: 10, H: 1}
	})
}

func batch(count int, edits ...edit.Edit) edit.Batch {
	after := count
	for _, e := range edits {
		after += e.Delta()
	}
	return edit.Batch{
		Edits:       edits,
		Affected:    edit.Affected(count, edits...),
		CountBefore: count,
		CountAfter:  after,
	}
}

func roles(p Plan, k entity.Kind) map[string]Role {
	out := make(map[string]Role)
	for _, op := range p.Ops {
		if op.Kind == k {
			out[op.Key] = op.Role
		}
	}
	return out
}

func TestComputeInsert(t *testing.T) {
	t.Parallel()

	p := Compute(Input{
		Batch:      batch(5, edit.Insert(2, 1)),
		OldWindow:  edit.Span(0, 5),
		NewWindow:  edit.Span(0, 6),
		Containers: containers(edit.Span(0, 5)),
		KeyAt:      func(int) string { return "new" },
		Measure:    rowMeasure(),
	})

	r := roles(p, entity.KindItem)
	require.Equal(t, RoleNone, r["a"])
	require.Equal(t, RoleNone, r["b"])
	require.Equal(t, RoleMove, r["c"])
	require.Equal(t, RoleMove, r["e"])
	require.Equal(t, RoleEnter, r["new"])
	require.Equal(t, []int{2}, p.Entering())
	require.Equal(t, 4, p.Transitions())
	require.Len(t, p.Kept, 5)

	for _, op := range p.Ops {
		if op.Key == "c" {
			require.Equal(t, geom.Rect{Y: 2, W: 10, H: 1}, op.From)
			require.Equal(t, 3, op.NewIndex)
		}
	}
}

func TestComputeRemoveOrdersExitsFirst(t *testing.T) {
	t.Parallel()

	p := Compute(Input{
		Batch:      batch(4, edit.Remove(1, 1)),
		OldWindow:  edit.Span(0, 4),
		NewWindow:  edit.Span(0, 3),
		Containers: containers(edit.Span(0, 4)),
		Measure:    rowMeasure(),
	})
	require.Equal(t, RoleExit, p.Ops[0].Role)
	require.Equal(t, "b", p.Ops[0].Key)
	require.Equal(t, geom.Rect{Y: 1, W: 10, H: 1}, p.Ops[0].From)
	require.Equal(t, 1, p.Count(RoleExit))
	require.Equal(t, 2, p.Count(RoleMove))
	require.Empty(t, p.Entering())
}

func TestComputeRemovedHoleExits(t *testing.T) {
	t.Parallel()

	cs := containers(edit.Span(0, 5))
	delete(cs, 1)
	delete(cs, 3)
	p := Compute(Input{
		Batch:      batch(5, edit.Remove(1, 2)),
		OldWindow:  edit.Span(0, 5),
		NewWindow:  edit.Span(0, 3),
		Containers: cs,
		Measure:    rowMeasure(),
	})
	require.Equal(t, 2, p.Count(RoleExit))
	require.Equal(t, RoleExit, p.Ops[0].Role)
	require.Nil(t, p.Ops[0].Container)
	require.Equal(t, 1, p.Ops[0].OldIndex)
	require.Equal(t, geom.Rect{Y: 1, W: 10, H: 1}, p.Ops[0].From)
	require.Equal(t, "c", p.Ops[1].Key)
	require.Equal(t, 2, p.Ops[1].OldIndex)

	// The hole that survived the edit is not an exit.
	for _, op := range p.Ops {
		require.NotEqual(t, 3, op.OldIndex)
	}
}

func TestComputeChangeRerenders(t *testing.T) {
	t.Parallel()

	p := Compute(Input{
		Batch:      batch(3, edit.Change(1)),
		OldWindow:  edit.Span(0, 3),
		NewWindow:  edit.Span(0, 3),
		Containers: containers(edit.Span(0, 3)),
	})
	require.Equal(t, []int{1}, p.Rerendered())
	require.Equal(t, 1, p.Transitions())
	require.False(t, p.Empty())
}

func TestComputeOffscreenMove(t *testing.T) {
	t.Parallel()

	p := Compute(Input{
		Batch:      batch(10, edit.Insert(0, 2)),
		OldWindow:  edit.Span(0, 4),
		NewWindow:  edit.Span(0, 4),
		Containers: containers(edit.Span(0, 4)),
		KeyAt:      func(i int) string { return []string{"x", "y", "a", "b"}[i] },
	})
	for _, op := range p.Ops {
		if op.Key == "c" || op.Key == "d" {
			require.Equal(t, RoleMove, op.Role)
			require.True(t, op.Offscreen)
		}
	}
	require.Len(t, p.Kept, 2)
	require.Equal(t, []int{0, 1}, p.Entering())
}

func TestComputeReload(t *testing.T) {
	t.Parallel()

	p := Compute(Input{
		Batch:      batch(3, edit.Reload()),
		OldWindow:  edit.Span(0, 3),
		NewWindow:  edit.Span(0, 2),
		Containers: containers(edit.Span(0, 3)),
	})
	require.True(t, p.Reload)
	require.Equal(t, 3, p.Count(RoleExit))
	require.Equal(t, 2, p.Count(RoleEnter))
}

func TestComputeGroupChangeReflows(t *testing.T) {
	t.Parallel()

	old := groups.FromCounts([]string{"A", "B"}, []int{2, 2})
	// Moving item 0 to the end puts it into group B.
	next := groups.FromCounts([]string{"A", "B"}, []int{1, 3})
	headers := map[string]*realize.Container{
		"A": {ID: 100, Key: "A", Kind: entity.KindHeader},
		"B": {ID: 101, Key: "B", Kind: entity.KindHeader},
	}
	p := Compute(Input{
		Batch:      batch(4, edit.Move(0, 3)),
		OldWindow:  edit.Span(0, 4),
		NewWindow:  edit.Span(0, 4),
		Containers: containers(edit.Span(0, 4)),
		OldGroups:  old,
		NewGroups:  next,
		Headers:    headers,
	})

	items := roles(p, entity.KindItem)
	require.Equal(t, RoleReflow, items["a"])
	require.Equal(t, RoleMove, items["b"])
	require.Equal(t, RoleMove, items["c"])

	hdrs := roles(p, entity.KindHeader)
	require.Equal(t, RoleNone, hdrs["A"])
	require.Equal(t, RoleMove, hdrs["B"])
	require.Len(t, p.KeptHeaders, 2)
}

func TestComputeHeaderEnterAndExit(t *testing.T) {
	t.Parallel()

	old := groups.FromCounts([]string{"A", "B"}, []int{1, 2})
	next := groups.FromCounts([]string{"B", "C"}, []int{2, 1})
	p := Compute(Input{
		Batch:      batch(3, edit.Remove(0, 1), edit.Insert(2, 1)),
		OldWindow:  edit.Span(0, 3),
		NewWindow:  edit.Span(0, 3),
		Containers: containers(edit.Span(0, 3)),
		OldGroups:  old,
		NewGroups:  next,
		Headers: map[string]*realize.Container{
			"A": {ID: 100, Key: "A", Kind: entity.KindHeader},
			"B": {ID: 101, Key: "B", Kind: entity.KindHeader},
		},
	})
	hdrs := roles(p, entity.KindHeader)
	require.Equal(t, RoleExit, hdrs["A"])
	require.Equal(t, RoleMove, hdrs["B"])
	require.Equal(t, RoleEnter, hdrs["C"])
	require.Equal(t, 1, p.CountKind(RoleEnter, entity.KindHeader))
}
