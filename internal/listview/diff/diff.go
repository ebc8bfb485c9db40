package diff

import (
	"slices"
	"sort"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/geom"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/charmbracelet/listview/internal/listview/realize"
)

// Measurer reports the on-screen rect of an item or header as laid out
// right now. It is consulted before any mutation.
type Measurer interface {
	Measure(kind entity.Kind, index int) geom.Rect
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(kind entity.Kind, index int) geom.Rect

// Measure implements Measurer.
func (f MeasureFunc) Measure(kind entity.Kind, index int) geom.Rect { return f(kind, index) }

// Input is everything Compute needs.
type Input struct {
	Batch edit.Batch

	OldWindow  edit.Range
	NewWindow  edit.Range
	Containers map[int]*realize.Container

	OldGroups []groups.Group
	NewGroups []groups.Group
	// Headers holds realized header containers by group key.
	Headers map[string]*realize.Container

	// KeyAt returns the key of the item at a new index, or "" if unknown.
	KeyAt func(index int) string

	Measure Measurer
}

// Compute classifies every realized container and every index of the new
// window. Measurements happen here, before the plan is applied.
func Compute(in Input) Plan {
	p := Plan{
		OldWindow:   in.OldWindow,
		NewWindow:   in.NewWindow,
		Affected:    in.Batch.Affected,
		Reload:      in.Batch.HasReload(),
		Kept:        make(map[int]*realize.Container),
		KeptHeaders: make(map[string]*realize.Container),
	}
	measure := func(k entity.Kind, i int) geom.Rect {
		if in.Measure == nil {
			return geom.Rect{}
		}
		return in.Measure.Measure(k, i)
	}
	keyAt := func(i int) string {
		if in.KeyAt == nil {
			return ""
		}
		return in.KeyAt(i)
	}

	var exits, moves, enters []Op

	for _, oldIndex := range sortedKeys(in.Containers) {
		c := in.Containers[oldIndex]
		newIndex, ok := in.Batch.MapIndex(oldIndex)
		if !ok {
			exits = append(exits, Op{
				Role:      RoleExit,
				Kind:      entity.KindItem,
				Key:       c.Key,
				Container: c,
				OldIndex:  oldIndex,
				NewIndex:  entity.Invalid,
				From:      measure(entity.KindItem, oldIndex),
			})
			continue
		}
		op := Op{
			Kind:      entity.KindItem,
			Key:       c.Key,
			Container: c,
			OldIndex:  oldIndex,
			NewIndex:  newIndex,
		}
		switch {
		case !in.NewWindow.Contains(newIndex):
			op.Role = RoleMove
			op.Offscreen = true
		case in.Batch.Changed(oldIndex):
			op.Role = RoleReflow
			op.Rerender = true
		case groupKeyAt(in.OldGroups, oldIndex) != groupKeyAt(in.NewGroups, newIndex):
			op.Role = RoleReflow
		case newIndex != oldIndex:
			op.Role = RoleMove
		}
		if op.Role != RoleNone {
			op.From = measure(entity.KindItem, oldIndex)
		}
		if !op.Offscreen {
			p.Kept[newIndex] = c
		}
		moves = append(moves, op)
	}

	// Removed holes have no container yet but still owned a slot.
	for i := in.OldWindow.Start; i < in.OldWindow.End; i++ {
		if _, ok := in.Containers[i]; ok {
			continue
		}
		if _, ok := in.Batch.MapIndex(i); ok {
			continue
		}
		exits = append(exits, Op{
			Role:     RoleExit,
			Kind:     entity.KindItem,
			OldIndex: i,
			NewIndex: entity.Invalid,
			From:     measure(entity.KindItem, i),
		})
	}
	slices.SortFunc(exits, func(a, b Op) int { return a.OldIndex - b.OldIndex })

	for i := in.NewWindow.Start; i < in.NewWindow.End; i++ {
		if _, ok := p.Kept[i]; ok {
			continue
		}
		enters = append(enters, Op{
			Role:     RoleEnter,
			Kind:     entity.KindItem,
			Key:      keyAt(i),
			OldIndex: entity.Invalid,
			NewIndex: i,
		})
	}

	hExits, hMoves, hEnters := diffHeaders(in, p.KeptHeaders, measure)

	p.Ops = slices.Concat(exits, hExits, moves, hMoves, hEnters, enters)
	return p
}

func diffHeaders(in Input, kept map[string]*realize.Container, measure func(entity.Kind, int) geom.Rect) (exits, moves, enters []Op) {
	oldVisible := visibleGroups(in.OldGroups, in.OldWindow)
	newVisible := visibleGroups(in.NewGroups, in.NewWindow)

	for _, key := range sortedGroupKeys(in.Headers, in.OldGroups) {
		c := in.Headers[key]
		oldGi, ok := oldVisible[key]
		if !ok {
			continue
		}
		newGi, visible := newVisible[key]
		op := Op{
			Kind:      entity.KindHeader,
			Key:       key,
			Container: c,
			OldIndex:  oldGi,
			NewIndex:  newGi,
			From:      measure(entity.KindHeader, oldGi),
		}
		switch {
		case in.Batch.HasReload() || !exists(in.NewGroups, key):
			op.Role = RoleExit
			op.NewIndex = entity.Invalid
			exits = append(exits, op)
			continue
		case !visible:
			op.Role = RoleMove
			op.Offscreen = true
			op.NewIndex = indexOfGroup(in.NewGroups, key)
		case in.OldGroups[oldGi].Start != in.NewGroups[newGi].Start:
			op.Role = RoleMove
			kept[key] = c
		default:
			op.From = geom.Rect{}
			kept[key] = c
		}
		moves = append(moves, op)
	}

	for gi, g := range in.NewGroups {
		if _, ok := newVisible[g.Key]; !ok {
			continue
		}
		if _, ok := kept[g.Key]; ok {
			continue
		}
		enters = append(enters, Op{
			Role:     RoleEnter,
			Kind:     entity.KindHeader,
			Key:      g.Key,
			OldIndex: entity.Invalid,
			NewIndex: gi,
		})
	}
	return exits, moves, enters
}

func visibleGroups(gs []groups.Group, window edit.Range) map[string]int {
	out := make(map[string]int)
	for gi, g := range gs {
		if g.Count > 0 && !g.Range().Intersect(window).Empty() {
			out[g.Key] = gi
		}
	}
	return out
}

func exists(gs []groups.Group, key string) bool {
	return indexOfGroup(gs, key) != entity.Invalid
}

func indexOfGroup(gs []groups.Group, key string) int {
	for gi, g := range gs {
		if g.Key == key && g.Count > 0 {
			return gi
		}
	}
	return entity.Invalid
}

func groupKeyAt(gs []groups.Group, i int) string {
	gi := sort.Search(len(gs), func(g int) bool { return gs[g].End() > i })
	if gi < len(gs) && gs[gi].Start <= i {
		return gs[gi].Key
	}
	return ""
}

func sortedKeys(m map[int]*realize.Container) []int {
	out := make([]int, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

func sortedGroupKeys(headers map[string]*realize.Container, gs []groups.Group) []string {
	out := make([]string, 0, len(headers))
	for _, g := range gs {
		if _, ok := headers[g.Key]; ok {
			out = append(out, g.Key)
		}
	}
	return out
}
