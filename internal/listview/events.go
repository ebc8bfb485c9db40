package listview

import (
	"fmt"

	"github.com/charmbracelet/listview/internal/listview/anim"
	"github.com/charmbracelet/listview/internal/listview/aria"
	"github.com/charmbracelet/listview/internal/listview/diff"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/selection"
	"github.com/charmbracelet/listview/internal/pubsub"
)

// LoadingState is the progress of the view towards showing settled content.
type LoadingState int

const (
	LoadingItems LoadingState = iota
	ViewportLoaded
	ItemsLoaded
	Complete
)

func (s LoadingState) String() string {
	switch s {
	case LoadingItems:
		return "itemsLoading"
	case ViewportLoaded:
		return "viewPortLoaded"
	case ItemsLoaded:
		return "itemsLoaded"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("loading(%d)", int(s))
	}
}

// Lifecycle of a view.
type Lifecycle int

const (
	Active Lifecycle = iota
	Disposed
)

func (l Lifecycle) String() string {
	if l == Disposed {
		return "disposed"
	}
	return "active"
}

// EventKind identifies a non-cancelable notification.
type EventKind int

const (
	EventSelectionChanged EventKind = iota
	EventItemInvoked
	EventHeaderInvoked
	EventFocusChanged
	EventLoadingStateChanged
	EventAccessibilityAnnotationComplete
	EventContentAnimated
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventSelectionChanged:
		return "selectionchanged"
	case EventItemInvoked:
		return "iteminvoked"
	case EventHeaderInvoked:
		return "groupheaderinvoked"
	case EventFocusChanged:
		return "focuschanged"
	case EventLoadingStateChanged:
		return "loadingstatechanged"
	case EventAccessibilityAnnotationComplete:
		return "accessibilityannotationcomplete"
	case EventContentAnimated:
		return "contentanimated"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is published on the view's broker and passed to Hooks.Event.
// Which fields are set depends on Kind.
type Event struct {
	Kind       EventKind
	Ref        entity.Ref
	Previous   entity.Ref
	Selected   []int
	Loading    LoadingState
	Annotation aria.Annotation
	Animation  anim.Kind
	Err        error
}

// AnimatingEvent is dispatched before an animation batch runs. Calling
// Prevent makes the batch jump to its end state.
type AnimatingEvent struct {
	Kind      anim.Kind
	Batch     uint64
	prevented bool
}

// Prevent skips the animation.
func (e *AnimatingEvent) Prevent() { e.prevented = true }

// Prevented reports whether a listener skipped the animation.
func (e *AnimatingEvent) Prevented() bool { return e.prevented }

// Hooks are synchronous callbacks. The cancelable ones run before the
// action they describe and can prevent it.
type Hooks struct {
	SelectionChanging  func(*selection.ChangingEvent)
	KeyboardNavigating func(*selection.NavigatingEvent)
	HeaderInvoked      func(*selection.HeaderInvokedEvent)
	ContentAnimating   func(*AnimatingEvent)
	// Plan receives every patch plan computed for an edit batch.
	Plan func(diff.Plan)
	// Event receives every event right before it is published.
	Event func(Event)
}

// machineEvents bridges the selection machine to hooks and the broker.
type machineEvents struct {
	lv *ListView
}

var _ selection.Events = machineEvents{}

func (m machineEvents) SelectionChanging(e *selection.ChangingEvent) {
	if h := m.lv.hooks.SelectionChanging; h != nil {
		h(e)
	}
}

func (m machineEvents) SelectionChanged(selected []int) {
	m.lv.emit(Event{Kind: EventSelectionChanged, Selected: selected})
}

func (m machineEvents) ItemInvoked(ref entity.Ref) {
	m.lv.emit(Event{Kind: EventItemInvoked, Ref: ref})
}

func (m machineEvents) HeaderInvoked(e *selection.HeaderInvokedEvent) {
	if h := m.lv.hooks.HeaderInvoked; h != nil {
		h(e)
	}
	m.lv.emit(Event{Kind: EventHeaderInvoked, Ref: e.Header})
}

func (m machineEvents) KeyboardNavigating(e *selection.NavigatingEvent) {
	if h := m.lv.hooks.KeyboardNavigating; h != nil {
		h(e)
	}
}

func (m machineEvents) FocusChanged(old, new entity.Ref) {
	m.lv.emit(Event{Kind: EventFocusChanged, Ref: new, Previous: old})
}

func (lv *ListView) emit(ev Event) {
	if lv.lifecycle == Disposed {
		return
	}
	if h := lv.hooks.Event; h != nil {
		h(ev)
	}
	lv.broker.Publish(pubsub.UpdatedEvent, ev)
}

func (lv *ListView) setLoading(s LoadingState) {
	if lv.loading == s {
		return
	}
	lv.loading = s
	lv.emit(Event{Kind: EventLoadingStateChanged, Loading: s})
}

// reportError publishes err once per generation.
func (lv *ListView) reportError(err error) {
	if lv.errReported {
		return
	}
	lv.errReported = true
	lv.emit(Event{Kind: EventError, Err: err})
}
