package notify

import (
	"testing"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/charmbracelet/listview/internal/listview/indexmap"
	"github.com/stretchr/testify/require"
)

type harness struct {
	q       *Queue
	keys    *indexmap.Map
	groups  *groups.Index
	batches []edit.Batch
	errs    []error
}

func newHarness(t *testing.T, count int, groupCounts ...int) *harness {
	t.Helper()
	h := &harness{keys: indexmap.New(count)}
	for i := range count {
		require.NoError(t, h.keys.Set(i, string(rune('a'+i))))
	}
	keys := make([]string, len(groupCounts))
	for i := range groupCounts {
		keys[i] = string(rune('A' + i))
	}
	gs, err := groups.New(groups.FromCounts(keys, groupCounts))
	require.NoError(t, err)
	h.groups = gs
	h.q = New(h.keys, gs, func(b edit.Batch) {
		h.batches = append(h.batches, b)
	}, func(err error) {
		h.errs = append(h.errs, err)
	})
	return h
}

func TestSingleNotificationFlushes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 5)
	h.q.Notify(edit.Insert(2, 1))
	require.Len(t, h.batches, 1)
	b := h.batches[0]
	require.Equal(t, 5, b.CountBefore)
	require.Equal(t, 6, b.CountAfter)
	require.Equal(t, edit.Span(2, 1), b.Affected)
	require.Equal(t, 6, h.keys.Count())
}

func TestNestedBatch(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 6, 3, 3)
	h.q.BeginEdits()
	h.q.Notify(edit.Remove(0, 1))
	h.q.BeginEdits()
	h.q.Notify(edit.Insert(4, 2))
	h.q.EndEdits()
	require.Empty(t, h.batches)
	require.Equal(t, 2, h.q.Buffered())
	h.q.EndEdits()

	require.Len(t, h.batches, 1)
	b := h.batches[0]
	require.Len(t, b.Edits, 2)
	require.Equal(t, edit.Range{Start: 0, End: 6}, b.Affected)
	require.Equal(t, 7, b.CountAfter)
	require.Equal(t, 7, h.groups.Total())
	g, err := h.groups.Group(1)
	require.NoError(t, err)
	require.Equal(t, 5, g.Count)

	i, err := h.keys.IndexForKey("f")
	require.NoError(t, err)
	require.Equal(t, 6, i)
}

func TestInvalidNotificationReportedOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 3)
	h.q.BeginEdits()
	h.q.Notify(edit.Remove(2, 5))
	h.q.Notify(edit.Change(1))
	h.q.Notify(edit.Move(0, 9))
	h.q.EndEdits()

	require.Len(t, h.errs, 1)
	require.ErrorIs(t, h.errs[0], entity.ErrInvalidEdit)
	require.Len(t, h.batches, 1)
	require.Len(t, h.batches[0].Edits, 1)

	h.q.Reset()
	h.q.Notify(edit.Remove(9, 1))
	require.Len(t, h.errs, 2)
}

func TestUnbalancedEndEdits(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 3)
	h.q.EndEdits()
	require.Zero(t, h.q.Depth())
	require.Empty(t, h.batches)
}

func TestInterruptedPassesAccumulate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 20)
	require.Equal(t, edit.Span(2, 1), h.q.BeginPass(edit.Span(2, 1)))
	require.True(t, h.q.InFlight())
	require.Equal(t, edit.Range{Start: 2, End: 11}, h.q.BeginPass(edit.Span(10, 1)))
	h.q.Settle()
	require.False(t, h.q.InFlight())
	require.True(t, h.q.Pending().Empty())
}

func TestResetDropsBuffered(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 3)
	gen := h.q.Generation()
	h.q.BeginEdits()
	h.q.Notify(edit.Insert(0, 1))
	h.q.Reset()
	require.Greater(t, h.q.Generation(), gen)
	require.Zero(t, h.q.Buffered())
	h.q.EndEdits()
	require.Empty(t, h.batches)
	require.Equal(t, 3, h.keys.Count())
}

func TestBatchCarriesTrackedReferences(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 4, 2, 2)
	tracked := h.keys.Track(entity.Item(3))
	h.q.BeginEdits()
	h.q.Notify(edit.Insert(4, 1, "z").InGroups("C"))
	h.q.Notify(edit.Remove(0, 1))
	h.q.EndEdits()

	require.Len(t, h.batches, 1)
	require.Equal(t, 2, tracked.Index())
	require.Equal(t, "d", tracked.Key())
	require.Equal(t, 3, h.groups.Len())
	g, err := h.groups.Group(2)
	require.NoError(t, err)
	require.Equal(t, "C", g.Key)
	require.Equal(t, 3, g.Start)
}
