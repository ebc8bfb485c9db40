// Package diff turns a batch of structural edits and the old realized state
// into a patch plan: which containers enter, exit, move or reflow.
package diff

import (
	"fmt"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/geom"
	"github.com/charmbracelet/listview/internal/listview/realize"
)

// Role is the animation role a container plays in a patch.
type Role int

const (
	RoleNone Role = iota
	RoleEnter
	RoleExit
	RoleMove
	RoleReflow
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleEnter:
		return "enter"
	case RoleExit:
		return "exit"
	case RoleMove:
		return "move"
	case RoleReflow:
		return "reflow"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Op is one per-container operation of a plan. For headers the indices are
// group indices.
type Op struct {
	Role      Role
	Kind      entity.Kind
	Key       string
	Container *realize.Container
	OldIndex  int
	NewIndex  int
	// From is the container's rect measured before anything was mutated.
	From geom.Rect
	// Rerender is set on reflows caused by a data change.
	Rerender bool
	// Offscreen is set on moves that carry a container out of the new
	// window; it is released once its animation is over.
	Offscreen bool
}

func (o Op) String() string {
	return fmt.Sprintf("%s %s %q %d->%d", o.Role, o.Kind, o.Key, o.OldIndex, o.NewIndex)
}

// Plan is the result of a diff.
type Plan struct {
	Ops       []Op
	OldWindow edit.Range
	NewWindow edit.Range
	Affected  edit.Range
	Reload    bool
	// Kept maps new indices to the containers that survive in the window.
	Kept map[int]*realize.Container
	// KeptHeaders maps group keys to header containers that survive.
	KeptHeaders map[string]*realize.Container
}

// Count returns the number of operations with role r.
func (p Plan) Count(r Role) int {
	n := 0
	for _, op := range p.Ops {
		if op.Role == r {
			n++
		}
	}
	return n
}

// CountKind returns the number of operations with role r on kind k.
func (p Plan) CountKind(r Role, k entity.Kind) int {
	n := 0
	for _, op := range p.Ops {
		if op.Role == r && op.Kind == k {
			n++
		}
	}
	return n
}

// Transitions returns the number of per-container transitions, which is the
// number of entering, exiting, moved and reflowed containers. Unaffected
// containers contribute nothing.
func (p Plan) Transitions() int {
	n := 0
	for _, op := range p.Ops {
		if op.Role != RoleNone {
			n++
		}
	}
	return n
}

// Entering returns the new item indices that need a container.
func (p Plan) Entering() []int {
	var out []int
	for _, op := range p.Ops {
		if op.Role == RoleEnter && op.Kind == entity.KindItem {
			out = append(out, op.NewIndex)
		}
	}
	return out
}

// Rerendered returns the new indices whose containers must be re-rendered.
func (p Plan) Rerendered() []int {
	var out []int
	for _, op := range p.Ops {
		if op.Rerender && op.Kind == entity.KindItem {
			out = append(out, op.NewIndex)
		}
	}
	return out
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return p.Transitions() == 0 && p.OldWindow == p.NewWindow
}
