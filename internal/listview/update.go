package listview

import (
	"log/slog"
	"maps"
	"slices"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/listview/internal/listview/anim"
	"github.com/charmbracelet/listview/internal/listview/aria"
	"github.com/charmbracelet/listview/internal/listview/diff"
	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/realize"
)

// Update handles the messages produced by the view's own commands. Other
// messages are ignored.
func (lv *ListView) Update(msg tea.Msg) tea.Cmd {
	if lv.lifecycle == Disposed {
		return nil
	}
	switch msg := msg.(type) {
	case countMsg:
		if !lv.stale("count", msg.gen) {
			lv.handleCount(msg)
		}
	case itemsMsg:
		if !lv.stale("items", msg.gen) {
			lv.handleItems(msg)
		}
	case renderMsg:
		if !lv.stale("render", msg.gen) {
			lv.handleRender(msg)
		}
	case headerMsg:
		if !lv.stale("header", msg.gen) {
			lv.handleHeader(msg)
		}
	case layoutMsg:
		if !lv.stale("layout", msg.gen) {
			lv.handleLayout(msg)
		}
	case animDoneMsg:
		if !lv.stale("animation", msg.gen) {
			lv.handleAnimDone(msg)
		}
	case focusKeyMsg:
		if !lv.stale("focus", msg.gen) {
			lv.handleFocusKey(msg)
		}
	}
	return lv.Flush()
}

func (lv *ListView) stale(kind string, gen uint64) bool {
	if gen == lv.gen {
		return false
	}
	slog.Debug("Dropping stale message", "kind", kind, "gen", gen, "current", lv.gen)
	return true
}

func (lv *ListView) handleCount(msg countMsg) {
	if msg.err != nil {
		slog.Error("Failed to load data source", "error", msg.err)
		lv.reportError(msg.err)
		return
	}
	if lv.recount {
		lv.recount = false
		lv.enqueue(lv.fetchCount())
		return
	}
	if err := lv.groups.Rebuild(msg.groups); err != nil {
		slog.Error("Data source returned invalid groups", "error", err)
		lv.reportError(err)
		_ = lv.groups.Rebuild(nil)
	}
	lv.keys.Reset(msg.count)
	lv.countKnown = true
	lv.layout.Initialize(host{lv: lv})
	if !lv.machine.Focused().IsValid() && msg.count > 0 {
		_ = lv.machine.SetFocus(entity.Item(0))
	}
	lv.offset = min(lv.offset, lv.layout.MaxOffset())
	slog.Debug("Data source counted", "count", msg.count, "groups", lv.groups.Len())
	if !lv.requestWindow() {
		lv.checkSettled()
	}
}

func (lv *ListView) visibleRange() edit.Range {
	if !lv.countKnown {
		return edit.Range{}
	}
	return lv.layout.ItemsFromRange(lv.offset, lv.offset+lv.height)
}

func (lv *ListView) desiredWindow() edit.Range {
	vis := lv.visibleRange()
	if vis.Empty() {
		return edit.Range{}
	}
	r := edit.Range{Start: vis.Start - lv.overscan, End: vis.End + lv.overscan}
	return r.Clamp(lv.keys.Count())
}

// requestWindow asks the tracker for the window around the viewport and
// fetches it. It reports whether a new request was issued.
func (lv *ListView) requestWindow() bool {
	target := lv.desiredWindow()
	if target == lv.tracker.Target() && lv.tracker.State() == realize.StateExpanding {
		return false
	}
	ticket, ok := lv.tracker.Request(target)
	if !ok {
		return false
	}
	lv.setLoading(LoadingItems)
	lv.enqueue(lv.fetchItems(ticket, target))
	return true
}

func (lv *ListView) handleItems(msg itemsMsg) {
	if msg.err != nil {
		slog.Error("Failed to fetch items", "range", msg.r.String(), "error", msg.err)
		lv.reportError(msg.err)
		return
	}
	if !lv.tracker.Current(msg.ticket) {
		slog.Debug("Dropping superseded fetch", "range", msg.r.String(), "ticket", msg.ticket)
		return
	}
	res := msg.result
	first := res.AbsoluteIndex - res.Offset
	for k, it := range res.Items {
		i := first + k
		if err := lv.keys.Set(i, it.Key); err != nil {
			slog.Warn("Ignoring fetched item", "index", i, "key", it.Key, "error", err)
			continue
		}
		lv.items[i] = it
	}

	target := lv.tracker.Target()
	lv.release(lv.tracker.Shrink(target)...)
	lv.release(lv.tracker.Expand(target)...)
	for i := range lv.items {
		if !target.Contains(i) {
			delete(lv.items, i)
		}
	}
	keep := target
	if f := lv.machine.Focused(); f.Kind == entity.KindItem && f.HasIndex() {
		keep = keep.Union(edit.Span(f.Index, 1))
	}
	lv.keys.Trim(keep)

	lv.renderHoles()
	lv.renderHeaders()
	lv.checkSettled()
}

func (lv *ListView) renderHoles() {
	for _, i := range lv.tracker.Holes() {
		it, ok := lv.items[i]
		if !ok {
			continue
		}
		if _, busy := lv.renderSeq[it.Key]; busy {
			continue
		}
		lv.enqueue(lv.renderItem(i, it))
	}
}

// renderHeaders realizes the headers of groups intersecting the window and
// drops the others.
func (lv *ListView) renderHeaders() {
	window := lv.tracker.Window()
	visible := make(map[string]bool)
	for _, gi := range lv.groups.Intersecting(window) {
		g, err := lv.groups.Group(gi)
		if err != nil {
			continue
		}
		visible[g.Key] = true
		if _, ok := lv.headers[g.Key]; ok {
			continue
		}
		if _, busy := lv.headerPending[g.Key]; busy {
			continue
		}
		lv.enqueue(lv.renderHeader(g))
	}
	for _, key := range slices.Sorted(maps.Keys(lv.headers)) {
		if !visible[key] {
			lv.release(lv.headers[key])
			delete(lv.headers, key)
		}
	}
}

func (lv *ListView) handleRender(msg renderMsg) {
	if seq, ok := lv.renderSeq[msg.key]; !ok || seq != msg.seq {
		slog.Debug("Dropping superseded render", "key", msg.key)
		return
	}
	delete(lv.renderSeq, msg.key)
	if msg.err != nil {
		slog.Error("Failed to render item", "key", msg.key, "error", msg.err)
		lv.reportError(msg.err)
	}
	i, err := lv.keys.IndexForKey(msg.key)
	if err != nil || !lv.tracker.IsHole(i) {
		slog.Debug("Rendered item is no longer pending", "key", msg.key)
		return
	}
	lv.nextContainer++
	c := &realize.Container{ID: lv.nextContainer, Key: msg.key, Kind: entity.KindItem, Element: msg.element}
	if err := lv.tracker.FillHole(i, c); err != nil {
		slog.Warn("Failed to fill hole", "index", i, "error", err)
		return
	}
	lv.checkSettled()
}

func (lv *ListView) handleHeader(msg headerMsg) {
	if seq, ok := lv.headerPending[msg.key]; !ok || seq != msg.seq {
		slog.Debug("Dropping superseded header render", "group", msg.key)
		return
	}
	delete(lv.headerPending, msg.key)
	if msg.err != nil {
		slog.Error("Failed to render header", "group", msg.key, "error", msg.err)
		lv.reportError(msg.err)
	}
	if lv.groups.IndexOfKey(msg.key) == entity.Invalid {
		lv.checkSettled()
		return
	}
	lv.nextContainer++
	lv.headers[msg.key] = &realize.Container{ID: lv.nextContainer, Key: msg.key, Kind: entity.KindHeader, Element: msg.element}
	if len(lv.headerPending) == 0 && lv.tracker.State() == realize.StateStable {
		// The items settled first; the pass they started bailed out.
		lv.enqueue(lv.layoutPass(lv.queue.BeginPass(lv.tracker.Window())))
		return
	}
	lv.checkSettled()
}

// checkSettled starts a layout pass once the window is complete.
func (lv *ListView) checkSettled() {
	if len(lv.headerPending) > 0 {
		return
	}
	if !lv.tracker.TrySettle() {
		return
	}
	lv.setLoading(ViewportLoaded)
	lv.enqueue(lv.layoutPass(lv.queue.BeginPass(lv.tracker.Window())))
}

func (lv *ListView) handleLayout(msg layoutMsg) {
	if msg.pass != lv.pass {
		slog.Debug("Dropping superseded layout pass", "pass", msg.pass, "current", lv.pass)
		return
	}
	if err := lv.layout.Layout(lv.ctx, msg.r); err != nil {
		slog.Error("Layout pass failed", "range", msg.r.String(), "error", err)
		lv.reportError(err)
		return
	}
	lv.queue.Settle()
	lv.offset = max(0, min(lv.offset, lv.layout.MaxOffset()))
	lv.startAnimation()
	if lv.requestWindow() {
		return
	}
	if lv.tracker.State() != realize.StateStable || len(lv.headerPending) > 0 {
		return
	}
	lv.finishSettle()
}

func (lv *ListView) finishSettle() {
	ann, _ := lv.aria.Update(lv.ariaInput())
	lv.emit(Event{Kind: EventAccessibilityAnnotationComplete, Annotation: ann})
	lv.setLoading(ItemsLoaded)
	lv.playEntrance()
	lv.maybeComplete()
}

func (lv *ListView) ariaInput() aria.Input {
	return aria.Input{
		Window:       lv.tracker.Window(),
		Count:        lv.keys.Count(),
		Groups:       lv.groups.Groups(),
		ItemRealized: lv.tracker.IsRealized,
		KeyAt:        lv.keyAt,
		HeaderRealized: func(gi int) bool {
			g, err := lv.groups.Group(gi)
			if err != nil {
				return false
			}
			_, ok := lv.headers[g.Key]
			return ok
		},
	}
}

func (lv *ListView) keyAt(i int) string {
	k, _ := lv.keys.KeyForIndex(i)
	return k
}

func (lv *ListView) playEntrance() {
	if !lv.entrance || lv.sched.EntrancePlayed() {
		return
	}
	var ops []diff.Op
	for _, key := range slices.Sorted(maps.Keys(lv.headers)) {
		gi := lv.groups.IndexOfKey(key)
		ops = append(ops, diff.Op{
			Kind:      entity.KindHeader,
			Key:       key,
			Container: lv.headers[key],
			OldIndex:  entity.Invalid,
			NewIndex:  gi,
			From:      lv.layout.Measure(entity.KindHeader, gi),
		})
	}
	for i, c := range lv.tracker.All() {
		ops = append(ops, diff.Op{
			Kind:      entity.KindItem,
			Key:       c.Key,
			Container: c,
			OldIndex:  entity.Invalid,
			NewIndex:  i,
			From:      lv.layout.Measure(entity.KindItem, i),
		})
	}
	if b, ok := lv.sched.Entrance(ops); ok {
		lv.launch(b)
	}
}

func (lv *ListView) startAnimation() {
	if b, ok := lv.sched.Start(); ok {
		lv.launch(b)
	}
}

func (lv *ListView) launch(b anim.Batch) {
	ev := &AnimatingEvent{Kind: b.Kind, Batch: b.ID}
	if h := lv.hooks.ContentAnimating; h != nil {
		h(ev)
	}
	if ev.Prevented() || !lv.animations {
		b.Skip = true
	}
	lv.enqueue(lv.runBatch(b))
}

func (lv *ListView) handleAnimDone(msg animDoneMsg) {
	lv.release(lv.sched.Done(msg.batch)...)
	if msg.err != nil {
		slog.Warn("Animation did not finish", "batch", msg.batch, "error", msg.err)
	}
	lv.emit(Event{Kind: EventContentAnimated, Animation: msg.kind})
	lv.maybeComplete()
}

func (lv *ListView) maybeComplete() {
	if lv.loading == ItemsLoaded && lv.sched.Idle() {
		lv.setLoading(Complete)
	}
}

func (lv *ListView) handleFocusKey(msg focusKeyMsg) {
	if msg.err != nil {
		slog.Warn("Failed to resolve current item", "key", msg.key, "error", msg.err)
		lv.reportError(msg.err)
		return
	}
	res := msg.result
	if res.Offset < 0 || res.Offset >= len(res.Items) {
		return
	}
	i := res.AbsoluteIndex
	if err := lv.keys.Set(i, msg.key); err != nil {
		slog.Warn("Failed to record current item", "key", msg.key, "error", err)
		return
	}
	ref := entity.Ref{Kind: entity.KindItem, Index: i, Key: msg.key}
	if err := lv.machine.SetFocus(ref); err != nil {
		slog.Warn("Failed to focus item", "key", msg.key, "error", err)
		return
	}
	lv.scrollTo(ref)
}

// scrollTo moves the viewport the least amount that shows ref.
func (lv *ListView) scrollTo(ref entity.Ref) {
	if !lv.countKnown {
		return
	}
	off, err := lv.layout.ScrollIntoView(ref, lv.offset)
	if err != nil {
		slog.Debug("Cannot scroll into view", "ref", ref.String(), "error", err)
		return
	}
	lv.setOffset(off)
}

func (lv *ListView) setOffset(y int) {
	y = max(0, min(y, lv.layout.MaxOffset()))
	if y == lv.offset {
		return
	}
	lv.offset = y
	lv.requestWindow()
}
