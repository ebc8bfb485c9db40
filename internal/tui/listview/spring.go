package listview

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/listview/internal/csync"
	"github.com/charmbracelet/listview/internal/listview/anim"
	"github.com/charmbracelet/listview/internal/listview/diff"
	"github.com/charmbracelet/listview/internal/listview/entity"
)

const (
	defaultFPS       = 60
	defaultFrequency = 7.0
	defaultDamping   = 0.9

	// Transitions start this many cells off their resting column.
	enterDistance = 6.0
	moveDistance  = 2.0

	settleEpsilon = 0.05
	maxDuration   = 2 * time.Second
)

// Displacement is the animated state of one realized entity.
type Displacement struct {
	Role diff.Role
	// Indent is the horizontal offset in cells, already rounded.
	Indent int
	// Strength goes from 1 to 0 over the transition.
	Strength float64
}

// SpringExecutor plays animation batches with harmonica springs. Frames are
// published to a concurrent store that the view reads while drawing.
type SpringExecutor struct {
	fps    int
	spring harmonica.Spring
	frames *csync.Map[string, Displacement]
	notify func()
}

// SpringOption configures a SpringExecutor.
type SpringOption func(*SpringExecutor)

// WithSpring sets the frame rate and spring parameters.
func WithSpring(fps int, frequency, damping float64) SpringOption {
	return func(e *SpringExecutor) {
		e.fps = max(1, fps)
		e.spring = harmonica.NewSpring(harmonica.FPS(e.fps), frequency, damping)
	}
}

// WithFrameNotify sets a function called after every frame. It runs on the
// executor's goroutine.
func WithFrameNotify(fn func()) SpringOption {
	return func(e *SpringExecutor) {
		e.notify = fn
	}
}

func NewSpringExecutor(opts ...SpringOption) *SpringExecutor {
	e := &SpringExecutor{
		fps:    defaultFPS,
		spring: harmonica.NewSpring(harmonica.FPS(defaultFPS), defaultFrequency, defaultDamping),
		frames: csync.NewMap[string, Displacement](),
		notify: func() {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ anim.Executor = (*SpringExecutor)(nil)

func frameKey(kind entity.Kind, key string) string {
	return kind.String() + ":" + key
}

// Displacement returns the current animation state of an entity.
func (e *SpringExecutor) Displacement(kind entity.Kind, key string) (Displacement, bool) {
	return e.frames.Get(frameKey(kind, key))
}

// Animating returns the number of entities in flight.
func (e *SpringExecutor) Animating() int {
	return e.frames.Len()
}

type particle struct {
	key   string
	role  diff.Role
	start float64
	pos   float64
	vel   float64
}

func (p *particle) settled() bool {
	return math.Abs(p.pos) < settleEpsilon && math.Abs(p.vel) < settleEpsilon
}

func distance(r diff.Role) float64 {
	switch r {
	case diff.RoleEnter:
		return enterDistance
	case diff.RoleMove:
		return moveDistance
	default:
		// Reflows do not move; they only fade their highlight.
		return 1
	}
}

// Execute implements anim.Executor. It blocks until every spring is at rest,
// the batch is skipped, or ctx is done.
func (e *SpringExecutor) Execute(ctx context.Context, b anim.Batch) error {
	var ps []*particle
	for _, t := range b.Transitions {
		if t.Role == diff.RoleExit || t.Key == "" {
			continue
		}
		d := distance(t.Role)
		ps = append(ps, &particle{key: frameKey(t.Kind, t.Key), role: t.Role, start: d, pos: d})
	}
	defer func() {
		for _, p := range ps {
			e.frames.Del(p.key)
		}
		e.notify()
	}()
	if b.Skip || len(ps) == 0 {
		return nil
	}

	ticker := time.NewTicker(time.Second / time.Duration(e.fps))
	defer ticker.Stop()
	limit := int(maxDuration.Seconds() * float64(e.fps))
	for frame := 0; frame < limit; frame++ {
		done := true
		for _, p := range ps {
			p.pos, p.vel = e.spring.Update(p.pos, p.vel, 0)
			if p.settled() {
				p.pos, p.vel = 0, 0
			} else {
				done = false
			}
			e.frames.Set(p.key, p.displacement())
		}
		e.notify()
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (p *particle) displacement() Displacement {
	d := Displacement{Role: p.role, Strength: max(0, min(1, p.pos/p.start))}
	if p.role != diff.RoleReflow {
		d.Indent = int(math.Round(max(0, p.pos)))
	}
	return d
}
