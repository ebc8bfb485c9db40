package selection

import "github.com/charmbracelet/listview/internal/listview/entity"

// ChangingEvent is dispatched before the selection changes. Calling Prevent
// leaves the state untouched and suppresses SelectionChanged.
type ChangingEvent struct {
	Old       []int
	New       []int
	prevented bool
}

// Prevent cancels the change.
func (e *ChangingEvent) Prevent() { e.prevented = true }

// Prevented reports whether a listener canceled the change.
func (e *ChangingEvent) Prevented() bool { return e.prevented }

// NavigatingEvent is dispatched before keyboard focus moves.
type NavigatingEvent struct {
	Old       entity.Ref
	New       entity.Ref
	prevented bool
}

// Prevent keeps focus where it is.
func (e *NavigatingEvent) Prevent() { e.prevented = true }

// Prevented reports whether a listener canceled the move.
func (e *NavigatingEvent) Prevented() bool { return e.prevented }

// HeaderInvokedEvent is dispatched when a group header is invoked. Calling
// PreventTapBehavior skips moving focus into the group.
type HeaderInvokedEvent struct {
	Header    entity.Ref
	prevented bool
}

// PreventTapBehavior cancels the default header tap behavior.
func (e *HeaderInvokedEvent) PreventTapBehavior() { e.prevented = true }

// Prevented reports whether the default behavior was canceled.
func (e *HeaderInvokedEvent) Prevented() bool { return e.prevented }

// Events receives what the state machine emits. Cancelable events are
// delivered synchronously so listeners can prevent them.
type Events interface {
	SelectionChanging(e *ChangingEvent)
	SelectionChanged(selected []int)
	ItemInvoked(ref entity.Ref)
	HeaderInvoked(e *HeaderInvokedEvent)
	KeyboardNavigating(e *NavigatingEvent)
	FocusChanged(old, new entity.Ref)
}

// NopEvents ignores everything. Embed it to implement a subset of Events.
type NopEvents struct{}

func (NopEvents) SelectionChanging(*ChangingEvent) {}
func (NopEvents) SelectionChanged([]int) {}
func (NopEvents) ItemInvoked(entity.Ref) {}
func (NopEvents) HeaderInvoked(*HeaderInvokedEvent) {}
func (NopEvents) KeyboardNavigating(*NavigatingEvent) {}
func (NopEvents) FocusChanged(entity.Ref, entity.Ref) {}
