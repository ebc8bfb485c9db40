package listview

import (
	"log/slog"
	"maps"

	"github.com/charmbracelet/listview/internal/datasource"
	"github.com/charmbracelet/listview/internal/listview/diff"
	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
)

var _ datasource.Listener = (*ListView)(nil)

// BeginEdits implements datasource.Listener.
func (lv *ListView) BeginEdits() {
	if !lv.accepting() {
		return
	}
	lv.takeSnapshot()
	lv.queue.BeginEdits()
}

// EndEdits implements datasource.Listener.
func (lv *ListView) EndEdits() {
	if !lv.accepting() {
		return
	}
	lv.queue.EndEdits()
}

// Notify implements datasource.Listener.
func (lv *ListView) Notify(e edit.Edit) {
	if !lv.accepting() {
		return
	}
	lv.takeSnapshot()
	lv.queue.Notify(e)
}

// accepting reports whether notifications can be applied. Before the count
// is known they are meaningless; the count is fetched again instead.
func (lv *ListView) accepting() bool {
	if lv.lifecycle == Disposed {
		return false
	}
	if !lv.countKnown {
		lv.recount = true
		return false
	}
	return true
}

// takeSnapshot records the groups as they were before the batch that is
// about to open.
func (lv *ListView) takeSnapshot() {
	if lv.queue.Depth() > 0 || lv.snapshotTaken {
		return
	}
	lv.snapshot = lv.groups.Groups()
	lv.snapshotTaken = true
}

func (lv *ListView) onSourceError(err error) {
	lv.reportError(err)
}

// onBatch runs synchronously when the queue flushes. The index map and the
// groups are already updated; the layout still reflects the old state.
func (lv *ListView) onBatch(b edit.Batch) {
	old := lv.snapshot
	lv.snapshot, lv.snapshotTaken = nil, false
	if b.HasReload() {
		lv.reload()
		return
	}

	lv.groups.Compact()
	window := lv.tracker.Window()
	next := lv.windowAfter(b)
	plan := diff.Compute(diff.Input{
		Batch:      b,
		OldWindow:  window,
		NewWindow:  next,
		Containers: lv.tracker.Snapshot(),
		OldGroups:  old,
		NewGroups:  lv.groups.Groups(),
		Headers:    maps.Clone(lv.headers),
		KeyAt:      lv.keyAt,
		Measure:    lv.layout,
	})
	slog.Debug("Patch planned",
		"edits", len(b.Edits),
		"enter", plan.Count(diff.RoleEnter),
		"exit", plan.Count(diff.RoleExit),
		"move", plan.Count(diff.RoleMove),
		"reflow", plan.Count(diff.RoleReflow),
	)
	if h := lv.hooks.Plan; h != nil {
		h(plan)
	}

	count := b.CountBefore
	for _, e := range b.Edits {
		count += e.Delta()
		lv.machine.Apply(e, count)
	}
	lv.machine.Regroup()

	items := make(map[int]datasource.Item, len(lv.items))
	for i, it := range lv.items {
		if ni, ok := b.MapIndex(i); ok && !b.Changed(i) {
			items[ni] = it
		}
	}
	lv.items = items

	// Changed items keep animating from their old container while a fresh
	// one is rendered.
	kept := maps.Clone(plan.Kept)
	for _, op := range plan.Ops {
		if !op.Rerender || op.Kind != entity.KindItem {
			continue
		}
		delete(kept, op.NewIndex)
		delete(lv.renderSeq, op.Key)
		lv.release(op.Container)
	}
	lv.tracker.Rebind(next, kept)
	lv.headers = plan.KeptHeaders

	if plan.Transitions() > 0 {
		lv.sched.Schedule(plan)
		lv.setLoading(LoadingItems)
	}
	if len(lv.tracker.Holes()) > 0 || lv.tracker.Target() != next {
		ticket, _ := lv.tracker.Request(next)
		lv.enqueue(lv.fetchItems(ticket, next))
	}
	lv.renderHeaders()
	lv.enqueue(lv.layoutPass(lv.queue.BeginPass(b.Affected)))
}

// windowAfter keeps the realized window at the same numeric position. A
// window reaching the end of the list grows with appended items so that
// they enter with a transition.
func (lv *ListView) windowAfter(b edit.Batch) edit.Range {
	want := lv.tracker.Target()
	n := want.Len()
	if want.End >= b.CountBefore {
		n += max(0, b.CountAfter-b.CountBefore)
	}
	start := max(0, min(want.Start, b.CountAfter-n))
	return edit.Span(start, n).Clamp(b.CountAfter)
}

// reload starts over with the same data source.
func (lv *ListView) reload() {
	slog.Debug("Data source reloaded", "gen", lv.gen)
	lv.machine.Apply(edit.Reload(), lv.keys.Count())
	lv.newGeneration()
	lv.resetRealized()
	lv.countKnown = false
	lv.setLoading(LoadingItems)
	lv.enqueue(lv.fetchCount())
}
