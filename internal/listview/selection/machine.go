package selection

import (
	"errors"
	"log/slog"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/indexmap"
)

// Key is a logical key.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyEnter
	KeySpace
	KeyEscape
	KeyTab
	KeySelectAll
)

var navigation = map[Key]entity.Direction{
	KeyUp:       entity.DirUp,
	KeyDown:     entity.DirDown,
	KeyLeft:     entity.DirLeft,
	KeyRight:    entity.DirRight,
	KeyHome:     entity.DirHome,
	KeyEnd:      entity.DirEnd,
	KeyPageUp:   entity.DirPageUp,
	KeyPageDown: entity.DirPageDown,
}

// Pointer is a logical pointer press.
type Pointer struct {
	Ref    entity.Ref
	Button Button
	Shift  bool
	Ctrl   bool
}

// KeyPress is a logical key press.
type KeyPress struct {
	Key   Key
	Shift bool
	Ctrl  bool
}

// State is a snapshot of the machine.
type State struct {
	Selected Set
	Focused  entity.Ref
	Pivot    int
}

// Machine is the Selection/Focus state machine.
type Machine struct {
	cfg    Config
	host   FocusHost
	events Events

	selected Set
	focused  entity.Ref
	pivot    int

	// lastFocused remembers, per group key, the item that had focus last.
	// The handles follow edits and keep their keys pinned in the host.
	lastFocused map[string]*indexmap.Handle
}

// New creates a machine. events may be nil.
func New(cfg Config, host FocusHost, events Events) *Machine {
	if events == nil {
		events = NopEvents{}
	}
	return &Machine{
		cfg:         cfg,
		host:        host,
		events:      events,
		focused:     entity.None(),
		pivot:       entity.Invalid,
		lastFocused: make(map[string]*indexmap.Handle),
	}
}

// Config returns the current configuration.
func (m *Machine) Config() Config { return m.cfg }

// SetConfig changes the configuration. Switching to ModeNone clears the
// selection; switching to ModeSingle keeps at most the first selected item.
func (m *Machine) SetConfig(cfg Config) {
	m.cfg = cfg
	switch {
	case cfg.Mode == ModeNone && m.selected.Len() > 0:
		m.selected = Set{}
		m.events.SelectionChanged(nil)
	case cfg.Mode == ModeSingle && m.selected.Len() > 1:
		m.selected = NewSet(m.selected.First())
		m.events.SelectionChanged(m.selected.Indices())
	}
}

// State returns a snapshot.
func (m *Machine) State() State {
	return State{Selected: m.selected.Clone(), Focused: m.focused, Pivot: m.pivot}
}

// Selected returns the selected indices in ascending order.
func (m *Machine) Selected() []int { return m.selected.Indices() }

// IsSelected reports whether index i is selected.
func (m *Machine) IsSelected(i int) bool { return m.selected.Contains(i) }

// Focused returns the focused entity.
func (m *Machine) Focused() entity.Ref { return m.focused }

// Pivot returns the range-selection anchor or entity.Invalid.
func (m *Machine) Pivot() int { return m.pivot }

// SetPivot moves the range-selection anchor.
func (m *Machine) SetPivot(i int) { m.pivot = i }

// Reset clears selection, pivot, focus and the focus cache. It is used when
// the data source is swapped.
func (m *Machine) Reset() {
	m.selected = Set{}
	m.pivot = entity.Invalid
	old := m.focused
	m.focused = entity.None()
	if m.host.Count() > 0 {
		m.focused = entity.Item(0)
		if k, err := m.host.KeyForIndex(0); err == nil {
			m.focused.Key = k
		}
	}
	m.forget()
	if old != m.focused {
		m.events.FocusChanged(old, m.focused)
	}
}

// SetFocus moves focus programmatically. No keyboardnavigating event is
// dispatched.
func (m *Machine) SetFocus(ref entity.Ref) error {
	switch ref.Kind {
	case entity.KindHeader:
		if err := entity.CheckIndex("setFocus", ref.Index, m.host.GroupCount()); err != nil {
			return err
		}
		if ref.Key == "" {
			ref.Key = m.host.GroupKey(ref.Index)
		}
	default:
		if ref.HasIndex() {
			if err := entity.CheckIndex("setFocus", ref.Index, m.host.Count()); err != nil {
				return err
			}
			if k, err := m.host.KeyForIndex(ref.Index); err == nil {
				ref.Key = k
			}
		} else {
			i, err := m.host.IndexForKey(ref.Key)
			if err != nil {
				return err
			}
			ref.Index = i
		}
	}
	m.moveFocus(ref)
	return nil
}

func (m *Machine) moveFocus(ref entity.Ref) {
	old := m.focused
	m.focused = ref
	if ref.Kind == entity.KindItem && ref.HasIndex() {
		m.remember(ref)
	}
	if old != ref {
		m.events.FocusChanged(old, ref)
	}
}

func (m *Machine) remember(ref entity.Ref) {
	if m.host.GroupCount() == 0 {
		return
	}
	gi, err := m.host.GroupForIndex(ref.Index)
	if err != nil || gi < 0 {
		return
	}
	gk := m.host.GroupKey(gi)
	if h, ok := m.lastFocused[gk]; ok {
		if !h.Lost() && h.Index() == ref.Index && (ref.Key == "" || ref.Key == h.Key()) {
			return
		}
		m.host.Release(h)
	}
	m.lastFocused[gk] = m.host.Track(ref)
}

func (m *Machine) forget() {
	for gk, h := range m.lastFocused {
		m.host.Release(h)
		delete(m.lastFocused, gk)
	}
}

// Regroup follows a change of the group structure. A focused header is
// rebound by key; when its group is gone the focus moves to the group now
// in its place. Remembered items of vanished groups are dropped.
func (m *Machine) Regroup() {
	for gk, h := range m.lastFocused {
		if m.groupIndex(gk) == entity.Invalid {
			m.host.Release(h)
			delete(m.lastFocused, gk)
		}
	}
	if m.focused.Kind != entity.KindHeader {
		return
	}
	old := m.focused
	if gi := m.groupIndex(old.Key); gi != entity.Invalid {
		if gi != old.Index {
			m.focused.Index = gi
			m.events.FocusChanged(old, m.focused)
		}
		return
	}
	target := entity.None()
	if n := m.host.GroupCount(); n > 0 {
		target = m.restore(min(old.Index, n-1))
	} else if m.host.Count() > 0 {
		target = entity.Item(0)
	}
	m.moveFocus(target)
}

func (m *Machine) groupIndex(key string) int {
	for gi := range m.host.GroupCount() {
		if m.host.GroupKey(gi) == key {
			return gi
		}
	}
	return entity.Invalid
}

// restore returns the item that should get focus when entering group gi.
// A removed or regrouped item falls back to the group's first item.
func (m *Machine) restore(gi int) entity.Ref {
	start, count, err := m.host.GroupRange(gi)
	if err != nil || count == 0 {
		return entity.None()
	}
	first := entity.Item(start)
	if k, err := m.host.KeyForIndex(start); err == nil {
		first.Key = k
	}
	h, ok := m.lastFocused[m.host.GroupKey(gi)]
	if !ok || h.Lost() {
		return first
	}
	i := h.Index()
	if i < 0 && h.Key() != "" {
		i, _ = m.host.IndexForKey(h.Key())
	}
	if i < start || i >= start+count {
		return first
	}
	ref := entity.Item(i)
	ref.Key = h.Key()
	return ref
}

// SetSelection replaces the selection programmatically. It returns false
// when a listener canceled the change.
func (m *Machine) SetSelection(indices []int) (bool, error) {
	next := NewSet()
	for _, i := range indices {
		if err := entity.CheckIndex("setSelection", i, m.host.Count()); err != nil {
			return false, err
		}
		next.Add(i)
	}
	switch {
	case m.cfg.Mode == ModeNone && next.Len() > 0:
		return false, nil
	case m.cfg.Mode == ModeSingle && next.Len() > 1:
		next = NewSet(next.First())
	}
	return m.change(next), nil
}

// change runs the cancelable selectionchanging protocol.
func (m *Machine) change(next Set) bool {
	if m.cfg.Mode == ModeNone {
		return false
	}
	if next.Equal(m.selected) {
		return true
	}
	ev := &ChangingEvent{Old: m.selected.Indices(), New: next.Indices()}
	m.events.SelectionChanging(ev)
	if ev.Prevented() {
		slog.Debug("Selection change canceled", "old", ev.Old, "new", ev.New)
		return false
	}
	m.selected = next
	m.events.SelectionChanged(next.Indices())
	return true
}

// Pointer handles a pointer press and returns the decision it applied.
func (m *Machine) Pointer(ev Pointer) Decision {
	if ev.Ref.Kind == entity.KindHeader {
		if ev.Button == ButtonPrimary {
			m.invokeHeader(ev.Ref)
		}
		return Decision{Action: ActionIgnore}
	}
	ref, err := m.resolve(ev.Ref)
	if err != nil {
		slog.Debug("Pointer on unresolvable item ignored", "ref", ev.Ref.String(), "error", err)
		return Decision{Action: ActionIgnore}
	}
	d := Decide(m.cfg, ev.Button, ev.Shift, ev.Ctrl)
	m.moveFocus(ref)
	i := ref.Index
	switch d.Action {
	case ActionSelect:
		if m.change(NewSet(i)) && !ev.Shift {
			m.pivot = i
		}
	case ActionToggle:
		if m.change(m.toggled(i)) {
			m.pivot = i
		}
	case ActionRangeSelect:
		m.selectRange(i, d.Additive)
	}
	if d.Invoke {
		m.events.ItemInvoked(ref)
	}
	return d
}

func (m *Machine) resolve(ref entity.Ref) (entity.Ref, error) {
	if ref.HasIndex() {
		if err := entity.CheckIndex("resolve", ref.Index, m.host.Count()); err != nil {
			return ref, err
		}
		if ref.Key == "" {
			if k, err := m.host.KeyForIndex(ref.Index); err == nil {
				ref.Key = k
			}
		}
		return ref, nil
	}
	i, err := m.host.IndexForKey(ref.Key)
	if err != nil {
		return ref, err
	}
	ref.Index = i
	return ref, nil
}

func (m *Machine) toggled(i int) Set {
	if m.cfg.Mode == ModeSingle {
		if m.selected.Contains(i) {
			return Set{}
		}
		return NewSet(i)
	}
	next := m.selected.Clone()
	next.Toggle(i)
	return next
}

func (m *Machine) selectRange(target int, additive bool) {
	anchor := m.pivot
	if anchor < 0 || anchor >= m.host.Count() {
		anchor = target
		m.pivot = target
	}
	r := Range(anchor, target)
	if additive {
		r = m.selected.Union(r)
	}
	m.change(r)
}

func (m *Machine) invokeHeader(ref entity.Ref) {
	ev := &HeaderInvokedEvent{Header: ref}
	m.events.HeaderInvoked(ev)
	if ev.Prevented() {
		return
	}
	target := m.restore(ref.Index)
	if !target.IsValid() {
		return
	}
	m.moveFocus(target)
	m.host.EnsureVisible(target)
}

// Key handles a key press. It returns false when the key was not consumed,
// for example Tab leaving the control.
func (m *Machine) Key(ev KeyPress) bool {
	if dir, ok := navigation[ev.Key]; ok {
		return m.navigate(dir, ev)
	}
	switch ev.Key {
	case KeyEnter:
		return m.enter()
	case KeySpace:
		if m.focused.Kind != entity.KindItem || !m.focused.HasIndex() || m.cfg.Mode == ModeNone {
			return false
		}
		if m.change(m.toggled(m.focused.Index)) {
			m.pivot = m.focused.Index
		}
		return true
	case KeyEscape:
		if m.change(Set{}) || m.cfg.Mode == ModeNone {
			m.pivot = entity.Invalid
		}
		return true
	case KeySelectAll:
		if !ev.Ctrl || m.cfg.Mode != ModeMulti || m.host.Count() == 0 {
			return false
		}
		m.change(Range(0, m.host.Count()-1))
		return true
	case KeyTab:
		return m.tab(ev.Shift)
	}
	return false
}

func (m *Machine) enter() bool {
	if !m.focused.IsValid() {
		return false
	}
	if m.focused.Kind == entity.KindHeader {
		m.invokeHeader(m.focused)
		return true
	}
	if m.cfg.Tap == TapNone {
		return false
	}
	m.events.ItemInvoked(m.focused)
	return true
}

func (m *Machine) navigate(dir entity.Direction, ev KeyPress) bool {
	from := m.focused
	if !from.IsValid() {
		if m.host.Count() == 0 {
			return false
		}
		from = entity.Item(0)
	}
	target, err := m.host.Navigate(from, dir)
	if err != nil {
		if !errors.Is(err, entity.ErrKeyNotFound) {
			slog.Debug("Layout navigation failed", "from", from.String(), "dir", dir.String(), "error", err)
		}
		return true
	}
	if !target.IsValid() || (target.Kind == m.focused.Kind && target.Index == m.focused.Index) {
		return true
	}
	nav := &NavigatingEvent{Old: m.focused, New: target}
	m.events.KeyboardNavigating(nav)
	if nav.Prevented() {
		return true
	}
	if target.Kind == entity.KindItem && target.Key == "" {
		if k, err := m.host.KeyForIndex(target.Index); err == nil {
			target.Key = k
		}
	}
	m.moveFocus(target)
	m.host.EnsureVisible(target)
	if target.Kind != entity.KindItem {
		return true
	}
	switch {
	case ev.Shift && m.cfg.Mode == ModeMulti:
		if m.pivot < 0 && from.Kind == entity.KindItem && from.HasIndex() {
			m.pivot = from.Index
		}
		m.selectRange(target.Index, ev.Ctrl || m.cfg.Tap != TapInvokeOnly)
	case ev.Shift && m.cfg.Mode == ModeSingle:
		m.change(NewSet(target.Index))
	default:
		m.pivot = target.Index
	}
	return true
}

// tab switches between the item track and the group header track.
func (m *Machine) tab(shift bool) bool {
	if m.host.GroupCount() == 0 {
		return false
	}
	switch {
	case !shift && m.focused.Kind == entity.KindItem && m.focused.HasIndex():
		gi, err := m.host.GroupForIndex(m.focused.Index)
		if err != nil || gi < 0 {
			return false
		}
		m.moveFocus(entity.Ref{Kind: entity.KindHeader, Index: gi, Key: m.host.GroupKey(gi)})
		m.host.EnsureVisible(m.focused)
		return true
	case shift && m.focused.Kind == entity.KindHeader:
		target := m.restore(m.focused.Index)
		if !target.IsValid() {
			return false
		}
		m.moveFocus(target)
		m.host.EnsureVisible(target)
		return true
	}
	return false
}

// Apply carries selection, pivot and focus through a structural edit. The
// remembered positions are tracked by the host. A removed pivot becomes invalid; a removed focus falls
// back to its nearest surviving neighbor.
func (m *Machine) Apply(e edit.Edit, countAfter int) {
	if e.Op == edit.OpReload {
		m.Reset()
		return
	}
	before := m.selected
	m.selected = m.selected.Apply(e)
	if m.pivot >= 0 {
		if p, ok := e.MapIndex(m.pivot); ok {
			m.pivot = p
		} else {
			m.pivot = entity.Invalid
		}
	}
	if m.focused.Kind == entity.KindItem && m.focused.HasIndex() {
		old := m.focused
		if ni, ok := e.MapIndex(m.focused.Index); ok {
			m.focused.Index = ni
		} else {
			m.focused = nearest(e, old.Index, countAfter)
			if m.focused.HasIndex() {
				if k, err := m.host.KeyForIndex(m.focused.Index); err == nil {
					m.focused.Key = k
				}
			}
		}
		if old != m.focused {
			m.events.FocusChanged(old, m.focused)
		}
	}
	if before.Len() != m.selected.Len() {
		m.events.SelectionChanged(m.selected.Indices())
	}
}

// nearest picks the index that takes the place of a removed one.
func nearest(e edit.Edit, removed, count int) entity.Ref {
	if count == 0 {
		return entity.None()
	}
	at := removed
	if e.Op == edit.OpRemove {
		at = e.At
	}
	return entity.Item(min(at, count-1))
}
