// Package selection is the selection and focus state machine. Pointer and
// keyboard input is interpreted against the configured selection mode and
// tap behavior.
package selection

import (
	"fmt"
	"strings"
)

// Mode is the selection mode.
type Mode int

const (
	ModeNone Mode = iota
	ModeSingle
	ModeMulti
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeSingle:
		return "single"
	case ModeMulti:
		return "multi"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "none", "single" or "multi".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, nil
	case "single":
		return ModeSingle, nil
	case "multi":
		return ModeMulti, nil
	}
	return ModeNone, fmt.Errorf("unknown selection mode %q", s)
}

// TapBehavior decides what a plain primary click does.
type TapBehavior int

const (
	TapNone TapBehavior = iota
	TapInvokeOnly
	TapToggleSelect
	TapDirectSelect
)

func (t TapBehavior) String() string {
	switch t {
	case TapNone:
		return "none"
	case TapInvokeOnly:
		return "invokeOnly"
	case TapToggleSelect:
		return "toggleSelect"
	case TapDirectSelect:
		return "directSelect"
	default:
		return fmt.Sprintf("tap(%d)", int(t))
	}
}

// ParseTapBehavior parses a tap behavior name, case-insensitively.
func ParseTapBehavior(s string) (TapBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return TapNone, nil
	case "", "invokeonly", "invoke_only":
		return TapInvokeOnly, nil
	case "toggleselect", "toggle_select":
		return TapToggleSelect, nil
	case "directselect", "direct_select":
		return TapDirectSelect, nil
	}
	return TapNone, fmt.Errorf("unknown tap behavior %q", s)
}

// Config is the selection configuration of a control.
type Config struct {
	Mode Mode
	Tap  TapBehavior
}

// Action is what an input event does to the selection.
type Action int

const (
	ActionIgnore Action = iota
	ActionInvoke
	ActionSelect
	ActionToggle
	ActionRangeSelect
	ActionContextMenu
)

func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionInvoke:
		return "invoke"
	case ActionSelect:
		return "select"
	case ActionToggle:
		return "toggle"
	case ActionRangeSelect:
		return "rangeSelect"
	case ActionContextMenu:
		return "contextMenu"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Button is a logical pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Decision is the outcome of the rule table for a pointer event.
type Decision struct {
	Action Action
	// Invoke is set when iteminvoked must fire.
	Invoke bool
	// Additive is set on range selections that extend the current
	// selection rather than replace it.
	Additive bool
	// Pressed is set when the pressed visual should show.
	Pressed bool
}

// Decide maps a pointer press on an item to a decision. Secondary presses
// follow the same table without invoking and without the pressed visual;
// when they would change nothing they open the context menu.
func Decide(cfg Config, button Button, shift, ctrl bool) Decision {
	var d Decision
	switch {
	case cfg.Mode == ModeNone:
		if cfg.Tap != TapNone {
			d.Action = ActionInvoke
			d.Invoke = true
		}
	case shift && cfg.Mode == ModeMulti:
		d.Action = ActionRangeSelect
		// invokeOnly replaces the selection with the range; the selecting
		// tap behaviors extend it.
		d.Additive = ctrl || cfg.Tap != TapInvokeOnly
	case shift:
		d.Action = ActionSelect
	case ctrl:
		d.Action = ActionToggle
	default:
		switch cfg.Tap {
		case TapInvokeOnly:
			d.Action = ActionInvoke
			d.Invoke = true
		case TapToggleSelect:
			d.Action = ActionToggle
			d.Invoke = true
		case TapDirectSelect:
			d.Action = ActionSelect
			d.Invoke = true
		}
	}
	if button == ButtonSecondary {
		d.Invoke = false
		if d.Action == ActionIgnore || d.Action == ActionInvoke {
			d.Action = ActionContextMenu
		}
		return d
	}
	d.Pressed = d.Action != ActionIgnore
	return d
}
