package selection

import (
	"fmt"

	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/indexmap"
)

// fakeHost is a vertical list of count items split into groups.
type fakeHost struct {
	count   int
	groups  []int
	visible []entity.Ref
	keys    *indexmap.Map
}

func newHost(count int, groups ...int) *fakeHost {
	keys := indexmap.New(count)
	for i := range count {
		_ = keys.Set(i, fmt.Sprintf("k%d", i))
	}
	return &fakeHost{count: count, groups: groups, keys: keys}
}

func (h *fakeHost) Count() int { return h.count }

func (h *fakeHost) KeyForIndex(i int) (string, error) {
	if err := entity.CheckIndex("key", i, h.count); err != nil {
		return "", err
	}
	return fmt.Sprintf("k%d", i), nil
}

func (h *fakeHost) IndexForKey(key string) (int, error) {
	var i int
	if _, err := fmt.Sscanf(key, "k%d", &i); err != nil || i >= h.count {
		return entity.Invalid, entity.ErrKeyNotFound
	}
	return i, nil
}

func (h *fakeHost) GroupCount() int { return len(h.groups) }

func (h *fakeHost) GroupForIndex(i int) (int, error) {
	start := 0
	for g, n := range h.groups {
		if i < start+n {
			return g, nil
		}
		start += n
	}
	return entity.Invalid, entity.NewInvalidIndex("group", i, h.count)
}

func (h *fakeHost) GroupRange(g int) (int, int, error) {
	if err := entity.CheckIndex("groupRange", g, len(h.groups)); err != nil {
		return 0, 0, err
	}
	start := 0
	for _, n := range h.groups[:g] {
		start += n
	}
	return start, h.groups[g], nil
}

func (h *fakeHost) GroupKey(g int) string { return fmt.Sprintf("g%d", g) }

func (h *fakeHost) Navigate(ref entity.Ref, dir entity.Direction) (entity.Ref, error) {
	if ref.Kind == entity.KindHeader {
		return ref, nil
	}
	i := ref.Index
	switch dir {
	case entity.DirUp, entity.DirLeft:
		i--
	case entity.DirDown, entity.DirRight:
		i++
	case entity.DirHome:
		i = 0
	case entity.DirEnd:
		i = h.count - 1
	case entity.DirPageUp:
		i -= 3
	case entity.DirPageDown:
		i += 3
	}
	i = max(0, min(i, h.count-1))
	return entity.Item(i), nil
}

func (h *fakeHost) EnsureVisible(ref entity.Ref) { h.visible = append(h.visible, ref) }

func (h *fakeHost) Track(ref entity.Ref) *indexmap.Handle { return h.keys.Track(ref) }

func (h *fakeHost) Release(hd *indexmap.Handle) { h.keys.Release(hd) }

// recorder captures events and optionally cancels the cancelable ones.
type recorder struct {
	changing      int
	changed       [][]int
	invoked       []entity.Ref
	headers       []entity.Ref
	focus         []entity.Ref
	navigating    int
	preventChange bool
	preventNav    bool
	preventHeader bool
}

func (r *recorder) SelectionChanging(ev *ChangingEvent) {
	r.changing++
	if r.preventChange {
		ev.Prevent()
	}
}

func (r *recorder) SelectionChanged(sel []int) { r.changed = append(r.changed, sel) }

func (r *recorder) ItemInvoked(ref entity.Ref) { r.invoked = append(r.invoked, ref) }

func (r *recorder) HeaderInvoked(ev *HeaderInvokedEvent) {
	r.headers = append(r.headers, ev.Header)
	if r.preventHeader {
		ev.PreventTapBehavior()
	}
}

func (r *recorder) KeyboardNavigating(ev *NavigatingEvent) {
	r.navigating++
	if r.preventNav {
		ev.Prevent()
	}
}

func (r *recorder) FocusChanged(_, ref entity.Ref) { r.focus = append(r.focus, ref) }
