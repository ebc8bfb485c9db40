// Package realize tracks which index window is materialized, which of its
// indices still wait for a container (holes), and the expansion state
// machine that converges on the most recently requested window.
package realize

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
)

// State of the tracker.
type State int

const (
	StateIdle State = iota
	StateExpanding
	StateStable
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExpanding:
		return "expanding"
	case StateStable:
		return "stable"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Container is a rendered unit bound to exactly one key while realized.
type Container struct {
	ID      uint64
	Key     string
	Kind    entity.Kind
	Element any
}

// Tracker is the Realized Range Tracker.
type Tracker struct {
	state      State
	window     edit.Range
	target     edit.Range
	ticket     uint64
	containers map[int]*Container
	holes      map[int]struct{}
}

// New returns an idle tracker with an empty window.
func New() *Tracker {
	return &Tracker{
		containers: make(map[int]*Container),
		holes:      make(map[int]struct{}),
	}
}

// State returns the expansion state.
func (t *Tracker) State() State { return t.state }

// Window returns the realized window.
func (t *Tracker) Window() edit.Range { return t.window }

// Target returns the most recently requested window.
func (t *Tracker) Target() edit.Range { return t.target }

// Ticket returns the ticket of the latest request.
func (t *Tracker) Ticket() uint64 { return t.ticket }

// Request asks for r to become the realized window. Requests made before the
// previous one settled replace its target; only the latest ticket can
// settle. Requesting the window that is already stable is a no-op and
// reports false.
func (t *Tracker) Request(r edit.Range) (uint64, bool) {
	if t.state == StateStable && r == t.target && r == t.window {
		return t.ticket, false
	}
	t.ticket++
	t.target = r
	t.state = StateExpanding
	return t.ticket, true
}

// Current reports whether ticket belongs to the latest request.
func (t *Tracker) Current(ticket uint64) bool {
	return ticket == t.ticket
}

// Expand grows the window to cover r. Newly covered indices become holes.
// A range disjoint from the window replaces it, releasing what was there.
func (t *Tracker) Expand(r edit.Range) []*Container {
	if r.Empty() {
		return nil
	}
	var released []*Container
	next := t.window.Union(r)
	touches := r.Start <= t.window.End && r.End >= t.window.Start
	if t.window.Empty() || !touches {
		released = t.Shrink(edit.Range{})
		next = r
	}
	for i := next.Start; i < next.End; i++ {
		if t.window.Contains(i) {
			continue
		}
		t.holes[i] = struct{}{}
	}
	t.window = next
	return released
}

// Shrink narrows the window to its intersection with keep and returns the
// containers that fell out.
func (t *Tracker) Shrink(keep edit.Range) []*Container {
	next := t.window.Intersect(keep)
	var released []*Container
	for _, i := range slices.Sorted(maps.Keys(t.containers)) {
		if !next.Contains(i) {
			released = append(released, t.containers[i])
			delete(t.containers, i)
		}
	}
	for i := range t.holes {
		if !next.Contains(i) {
			delete(t.holes, i)
		}
	}
	t.window = next
	return released
}

// MarkHole drops the container at i, if any, and marks i as pending.
func (t *Tracker) MarkHole(i int) (*Container, error) {
	if !t.window.Contains(i) {
		return nil, entity.NewInvalidIndex("markHole", i, t.window.End)
	}
	c := t.containers[i]
	delete(t.containers, i)
	t.holes[i] = struct{}{}
	return c, nil
}

// FillHole binds c to index i.
func (t *Tracker) FillHole(i int, c *Container) error {
	if !t.window.Contains(i) {
		return entity.NewInvalidIndex("fillHole", i, t.window.End)
	}
	if c == nil {
		return fmt.Errorf("fillHole: nil container at %d", i)
	}
	delete(t.holes, i)
	t.containers[i] = c
	return nil
}

// IsRealized reports whether i has a live container. Holes are never
// realized.
func (t *Tracker) IsRealized(i int) bool {
	if _, hole := t.holes[i]; hole {
		return false
	}
	_, ok := t.containers[i]
	return ok
}

// IsHole reports whether i is inside the window and still pending.
func (t *Tracker) IsHole(i int) bool {
	_, ok := t.holes[i]
	return ok
}

// Container returns the container at i.
func (t *Tracker) Container(i int) (*Container, bool) {
	if !t.IsRealized(i) {
		return nil, false
	}
	return t.containers[i], true
}

// IndexOfKey returns the index whose container is bound to key.
func (t *Tracker) IndexOfKey(key string) (int, bool) {
	for i, c := range t.containers {
		if c.Key == key {
			return i, true
		}
	}
	return entity.Invalid, false
}

// Holes returns the pending indices in ascending order.
func (t *Tracker) Holes() []int {
	return slices.Sorted(maps.Keys(t.holes))
}

// Len returns the number of realized containers.
func (t *Tracker) Len() int { return len(t.containers) }

// All iterates realized containers in index order.
func (t *Tracker) All() iter.Seq2[int, *Container] {
	return func(yield func(int, *Container) bool) {
		for _, i := range slices.Sorted(maps.Keys(t.containers)) {
			if !yield(i, t.containers[i]) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the index to container binding.
func (t *Tracker) Snapshot() map[int]*Container {
	return maps.Clone(t.containers)
}

// Rebind replaces the window and its containers after a patch. Indices in
// the window without a container become holes.
func (t *Tracker) Rebind(window edit.Range, containers map[int]*Container) {
	t.window = window
	t.containers = make(map[int]*Container, len(containers))
	clear(t.holes)
	for i, c := range containers {
		if window.Contains(i) {
			t.containers[i] = c
		}
	}
	for i := window.Start; i < window.End; i++ {
		if _, ok := t.containers[i]; !ok {
			t.holes[i] = struct{}{}
		}
	}
	if t.state == StateStable && len(t.holes) > 0 {
		t.state = StateExpanding
		t.ticket++
		t.target = window
	}
}

// TrySettle moves the tracker to Stable once the window equals the latest
// target and no hole is left. It reports true exactly once per settled
// state.
func (t *Tracker) TrySettle() bool {
	if t.state != StateExpanding {
		return false
	}
	if t.window != t.target || len(t.holes) > 0 {
		return false
	}
	t.state = StateStable
	return true
}

// Reset drops everything and returns to Idle.
func (t *Tracker) Reset() []*Container {
	released := slices.Collect(maps.Values(t.containers))
	clear(t.containers)
	clear(t.holes)
	t.window = edit.Range{}
	t.target = edit.Range{}
	t.state = StateIdle
	t.ticket++
	return released
}
