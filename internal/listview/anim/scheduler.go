// Package anim sequences patch plans into transition batches. Plans that
// arrive before the pending batch starts are merged into it; batches that
// already started run to completion and are never redirected.
package anim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/listview/internal/listview/diff"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/realize"
)

// Kind is the type of animation, as seen by contentanimating listeners.
type Kind int

const (
	KindEntrance Kind = iota
	KindContentTransition
)

func (k Kind) String() string {
	switch k {
	case KindEntrance:
		return "entrance"
	case KindContentTransition:
		return "contentTransition"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Transition is the animation of one container.
type Transition struct {
	diff.Op
	// Fresh is set when the key is still exiting in an earlier batch; the
	// executor must animate a new container instead of reusing that one.
	Fresh bool
}

// Batch is a set of transitions executed together.
type Batch struct {
	ID          uint64
	Kind        Kind
	Transitions []Transition
	// Skip asks the executor to jump to the end state.
	Skip bool
}

// Count returns the number of transitions with role r.
func (b Batch) Count(r diff.Role) int {
	n := 0
	for _, t := range b.Transitions {
		if t.Role == r {
			n++
		}
	}
	return n
}

// Executor runs a batch to completion. It is the strategy that concrete
// renderers provide; tests substitute their own.
type Executor interface {
	Execute(ctx context.Context, b Batch) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, b Batch) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, b Batch) error { return f(ctx, b) }

// Immediate is an executor that finishes every batch at once.
var Immediate Executor = ExecutorFunc(func(context.Context, Batch) error { return nil })

type slot struct {
	kind entity.Kind
	key  string
	id   uint64
}

func slotOf(op diff.Op) slot {
	s := slot{kind: op.Kind, key: op.Key}
	if op.Container != nil {
		s.id = op.Container.ID
	}
	return s
}

// Scheduler is the Animation Scheduler.
type Scheduler struct {
	nextID  uint64
	pending *Batch
	index   map[slot]int
	running map[uint64]Batch
	// exiting maps keys to the batch that is animating their exit.
	exiting map[string]uint64

	entrancePlayed bool
}

// New returns an idle scheduler.
func New() *Scheduler {
	return &Scheduler{
		running: make(map[uint64]Batch),
		exiting: make(map[string]uint64),
	}
}

// Schedule merges the plan's transitions into the pending batch and returns
// its ID. Unaffected containers are not scheduled.
func (s *Scheduler) Schedule(p diff.Plan) uint64 {
	if s.pending == nil {
		s.nextID++
		s.pending = &Batch{ID: s.nextID, Kind: KindContentTransition}
		s.index = make(map[slot]int)
	}
	for _, op := range p.Ops {
		if op.Role == diff.RoleNone {
			continue
		}
		t := Transition{Op: op}
		if op.Role != diff.RoleExit {
			if _, ok := s.exiting[op.Key]; ok && op.Key != "" {
				t.Fresh = true
			}
		}
		sl := slotOf(op)
		if at, ok := s.index[sl]; ok {
			prev := s.pending.Transitions[at]
			// Keep the first measured origin so the merged transition
			// starts where the container really was.
			if prev.Role != diff.RoleEnter && !prev.From.Empty() {
				t.From = prev.From
			}
			if prev.Role == diff.RoleEnter && t.Role != diff.RoleExit {
				t.Role = diff.RoleEnter
			}
			s.pending.Transitions[at] = t
			continue
		}
		s.index[sl] = len(s.pending.Transitions)
		s.pending.Transitions = append(s.pending.Transitions, t)
	}
	return s.pending.ID
}

// HasPending reports whether a batch is waiting to start.
func (s *Scheduler) HasPending() bool { return s.pending != nil }

// Start hands out the pending batch and marks it running. It returns false
// when nothing is pending.
func (s *Scheduler) Start() (Batch, bool) {
	if s.pending == nil {
		return Batch{}, false
	}
	b := *s.pending
	s.pending = nil
	s.index = nil
	for _, t := range b.Transitions {
		if t.Role == diff.RoleExit && t.Key != "" {
			s.exiting[t.Key] = b.ID
		}
	}
	s.running[b.ID] = b
	slog.Debug("Animation batch started", "id", b.ID, "kind", b.Kind.String(), "transitions", len(b.Transitions))
	return b, true
}

// Done marks batch id as finished and returns the containers that can now
// be destroyed: exits and offscreen moves.
func (s *Scheduler) Done(id uint64) []*realize.Container {
	b, ok := s.running[id]
	if !ok {
		return nil
	}
	delete(s.running, id)
	var released []*realize.Container
	for _, t := range b.Transitions {
		if t.Role == diff.RoleExit && s.exiting[t.Key] == id {
			delete(s.exiting, t.Key)
		}
		if (t.Role == diff.RoleExit || t.Offscreen) && t.Container != nil {
			released = append(released, t.Container)
		}
	}
	return released
}

// Running returns the number of batches in flight.
func (s *Scheduler) Running() int { return len(s.running) }

// Idle reports whether nothing is pending or running.
func (s *Scheduler) Idle() bool {
	return s.pending == nil && len(s.running) == 0
}

// IsExiting reports whether key is animating out.
func (s *Scheduler) IsExiting(key string) bool {
	_, ok := s.exiting[key]
	return ok
}

// Entrance returns the first-paint entrance batch. It is produced once per
// scheduler unless ReplayEntrance is called.
func (s *Scheduler) Entrance(ops []diff.Op) (Batch, bool) {
	if s.entrancePlayed {
		return Batch{}, false
	}
	s.entrancePlayed = true
	s.nextID++
	b := Batch{ID: s.nextID, Kind: KindEntrance}
	for _, op := range ops {
		op.Role = diff.RoleEnter
		b.Transitions = append(b.Transitions, Transition{Op: op})
	}
	s.running[b.ID] = b
	return b, true
}

// EntrancePlayed reports whether the entrance animation already ran.
func (s *Scheduler) EntrancePlayed() bool { return s.entrancePlayed }

// ReplayEntrance allows the entrance animation to run again.
func (s *Scheduler) ReplayEntrance() { s.entrancePlayed = false }

// Cancel drops pending and running batches and returns every container
// they were going to release.
func (s *Scheduler) Cancel() []*realize.Container {
	var released []*realize.Container
	for id := range s.running {
		released = append(released, s.Done(id)...)
	}
	if s.pending != nil {
		for _, t := range s.pending.Transitions {
			if (t.Role == diff.RoleExit || t.Offscreen) && t.Container != nil {
				released = append(released, t.Container)
			}
		}
	}
	s.pending = nil
	s.index = nil
	clear(s.exiting)
	return released
}
