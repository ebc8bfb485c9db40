package listview

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/listview/internal/datasource"
	"github.com/charmbracelet/listview/internal/listview/aria"
	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/charmbracelet/listview/internal/listview/realize"
	"github.com/charmbracelet/listview/internal/listview/selection"
)

// Source returns the current data source.
func (lv *ListView) Source() datasource.Source { return lv.source }

// Layout returns the layout.
func (lv *ListView) Layout() Layout { return lv.layout }

// Count returns the number of items, or zero while it is unknown.
func (lv *ListView) Count() int { return lv.keys.Count() }

// Groups returns the groups. It is empty for ungrouped lists.
func (lv *ListView) Groups() []groups.Group { return lv.groups.Groups() }

// Window returns the realized index range.
func (lv *ListView) Window() edit.Range { return lv.tracker.Window() }

// Holes returns the realized indices still waiting for a container.
func (lv *ListView) Holes() []int { return lv.tracker.Holes() }

// Item returns the fetched data of item i if it is inside the window.
func (lv *ListView) Item(i int) (datasource.Item, bool) {
	it, ok := lv.items[i]
	return it, ok
}

// ElementFromIndex returns the rendered element of item i. Holes and items
// outside the window have none.
func (lv *ListView) ElementFromIndex(i int) (any, bool) {
	c, ok := lv.tracker.Container(i)
	if !ok {
		return nil, false
	}
	return c.Element, true
}

// Container returns the container realized for item i.
func (lv *ListView) Container(i int) (*realize.Container, bool) {
	return lv.tracker.Container(i)
}

// Header returns the realized header of the group with key.
func (lv *ListView) Header(key string) (*realize.Container, bool) {
	c, ok := lv.headers[key]
	return c, ok
}

// Annotation returns the accessibility annotation of the last settle.
func (lv *ListView) Annotation() aria.Annotation { return lv.aria.Last() }

// Size returns the viewport size.
func (lv *ListView) Size() (int, int) { return lv.width, lv.height }

// SetSize resizes the viewport and lays out again.
func (lv *ListView) SetSize(width, height int) tea.Cmd {
	if lv.lifecycle == Disposed || (width == lv.width && height == lv.height) {
		return nil
	}
	lv.width, lv.height = width, height
	if lv.countKnown {
		lv.enqueue(lv.layoutPass(lv.queue.BeginPass(lv.tracker.Window())))
	}
	return lv.Flush()
}

// CurrentItem returns the focused entity.
func (lv *ListView) CurrentItem() entity.Ref { return lv.machine.Focused() }

// SetCurrentItem focuses ref and scrolls it into view. An item addressed
// by a key that is not loaded yet is looked up in the data source first.
func (lv *ListView) SetCurrentItem(ref entity.Ref) (tea.Cmd, error) {
	if lv.lifecycle == Disposed {
		return nil, ErrDisposed
	}
	if ref.Kind == entity.KindItem && !ref.HasIndex() && ref.Key != "" {
		i, err := lv.keys.IndexForKey(ref.Key)
		if err != nil {
			if lv.source == nil {
				return nil, err
			}
			lv.enqueue(lv.fetchKey(ref.Key))
			return lv.Flush(), nil
		}
		ref.Index = i
	}
	if err := lv.machine.SetFocus(ref); err != nil {
		return nil, err
	}
	lv.scrollTo(lv.machine.Focused())
	return lv.Flush(), nil
}

// IndexOfFirstVisible returns the first item intersecting the viewport, or
// entity.Invalid when nothing is visible.
func (lv *ListView) IndexOfFirstVisible() int {
	r := lv.visibleRange()
	if r.Empty() {
		return entity.Invalid
	}
	return r.Start
}

// IndexOfLastVisible returns the last item intersecting the viewport, or
// entity.Invalid when nothing is visible.
func (lv *ListView) IndexOfLastVisible() int {
	r := lv.visibleRange()
	if r.Empty() {
		return entity.Invalid
	}
	return r.End - 1
}

// SetIndexOfFirstVisible scrolls so that item i is the first visible one.
// Negative indices are ignored; indices past the end scroll as far as the
// content allows.
func (lv *ListView) SetIndexOfFirstVisible(i int) tea.Cmd {
	if lv.lifecycle == Disposed || i < 0 || !lv.countKnown || lv.keys.Count() == 0 {
		return nil
	}
	if i >= lv.keys.Count() {
		i = lv.layout.MaxFirstVisible()
	}
	off, err := lv.layout.OffsetFor(entity.Item(i))
	if err != nil {
		slog.Debug("Cannot scroll to index", "index", i, "error", err)
		return nil
	}
	lv.setOffset(off)
	return lv.Flush()
}

// ScrollPosition returns the scroll offset in rows.
func (lv *ListView) ScrollPosition() int { return lv.offset }

// SetScrollPosition scrolls to y, clamped to the content.
func (lv *ListView) SetScrollPosition(y int) tea.Cmd {
	if lv.lifecycle == Disposed || !lv.countKnown {
		return nil
	}
	lv.setOffset(y)
	return lv.Flush()
}

// EnsureVisible scrolls the least amount needed to show ref. An item index
// of -1 and indices past the end are ignored; other negative indices are
// invalid.
func (lv *ListView) EnsureVisible(ref entity.Ref) (tea.Cmd, error) {
	if lv.lifecycle == Disposed {
		return nil, ErrDisposed
	}
	switch ref.Kind {
	case entity.KindHeader:
		if err := entity.CheckIndex("ensureVisible", ref.Index, lv.groups.Len()); err != nil {
			return nil, err
		}
	default:
		if ref.Index == entity.Invalid && ref.Key != "" {
			i, err := lv.keys.IndexForKey(ref.Key)
			if err != nil {
				return nil, err
			}
			ref.Index = i
		}
		switch {
		case ref.Index == entity.Invalid:
			return nil, nil
		case ref.Index < entity.Invalid:
			return nil, entity.NewInvalidIndex("ensureVisible", ref.Index, lv.keys.Count())
		case ref.Index >= lv.keys.Count():
			return nil, nil
		}
	}
	lv.scrollTo(ref)
	return lv.Flush(), nil
}

// Selected returns the selected indices in ascending order.
func (lv *ListView) Selected() []int { return lv.machine.Selected() }

// IsSelected reports whether item i is selected.
func (lv *ListView) IsSelected(i int) bool { return lv.machine.IsSelected(i) }

// SetSelection replaces the selection. It reports false when a
// SelectionChanging hook prevented the change.
func (lv *ListView) SetSelection(indices []int) (bool, error) {
	if lv.lifecycle == Disposed {
		return false, ErrDisposed
	}
	return lv.machine.SetSelection(indices)
}

// SelectionConfig returns the selection mode and tap behavior.
func (lv *ListView) SelectionConfig() selection.Config { return lv.machine.Config() }

// SetSelectionConfig changes the selection mode and tap behavior.
func (lv *ListView) SetSelectionConfig(cfg selection.Config) {
	if lv.lifecycle == Disposed {
		return
	}
	lv.machine.SetConfig(cfg)
}

// Pointer handles a click or tap.
func (lv *ListView) Pointer(ev selection.Pointer) (selection.Decision, tea.Cmd) {
	if lv.lifecycle == Disposed {
		return selection.Decision{}, nil
	}
	d := lv.machine.Pointer(ev)
	return d, lv.Flush()
}

// Key handles a key press. It reports whether the key was consumed.
func (lv *ListView) Key(ev selection.KeyPress) (bool, tea.Cmd) {
	if lv.lifecycle == Disposed {
		return false, nil
	}
	ok := lv.machine.Key(ev)
	return ok, lv.Flush()
}

// ReplayEntrance plays the entrance animation again.
func (lv *ListView) ReplayEntrance() tea.Cmd {
	if lv.lifecycle == Disposed {
		return nil
	}
	lv.sched.ReplayEntrance()
	if lv.loading >= ItemsLoaded {
		lv.setLoading(ItemsLoaded)
		lv.playEntrance()
		lv.maybeComplete()
	}
	return lv.Flush()
}

// ForceLayout throws away every container and in-flight operation and
// loads the current source again. Selection and focus are kept. An open
// edit batch is dropped; the fresh count already includes it.
func (lv *ListView) ForceLayout() tea.Cmd {
	if lv.lifecycle == Disposed {
		return nil
	}
	lv.queue.Reset()
	lv.snapshot, lv.snapshotTaken = nil, false
	lv.newGeneration()
	lv.resetRealized()
	lv.countKnown = false
	lv.setLoading(LoadingItems)
	lv.enqueue(lv.fetchCount())
	return lv.Flush()
}

// SetItemDataSource swaps the data source. Setting the current source again
// does nothing. Buffered notifications of the old source are discarded and
// the selection is cleared.
func (lv *ListView) SetItemDataSource(src datasource.Source) tea.Cmd {
	if lv.lifecycle == Disposed || src == lv.source {
		return nil
	}
	slog.Debug("Swapping data source", "gen", lv.gen)
	if lv.unsubscribe != nil {
		lv.unsubscribe()
		lv.unsubscribe = nil
	}
	lv.queue.Reset()
	lv.snapshot, lv.snapshotTaken = nil, false
	lv.newGeneration()
	lv.resetRealized()
	lv.keys.Reset(0)
	_ = lv.groups.Rebuild(nil)
	lv.countKnown = false
	lv.recount = false
	lv.offset = 0
	lv.machine.Reset()
	lv.source = src
	lv.subscribe()
	lv.setLoading(LoadingItems)
	lv.enqueue(lv.fetchCount())
	return lv.Flush()
}
