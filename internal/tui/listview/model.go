// Package listview is the terminal front end of the list view control: it
// draws realized containers with lipgloss, maps keys and mouse presses to
// the control's input model and animates transitions with springs.
package listview

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/listview/internal/datasource"
	core "github.com/charmbracelet/listview/internal/listview"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/selection"
)

const (
	// Rows below the list: status or filter input, and help.
	footerHeight = 2
	wheelStep    = 2
)

// FrameMsg asks for a redraw while an animation is running.
type FrameMsg struct{}

// ApplyMsg runs a function on the UI goroutine. Data sources are mutated
// this way so that their notifications arrive on the control's turn.
type ApplyMsg func()

type copiedMsg struct {
	count int
	err   error
}

// Remover is implemented by sources that can delete items by key.
type Remover interface {
	RemoveKey(key string) error
}

// Model is the bubbletea model of the list component.
type Model struct {
	lv     *core.ListView
	exec   *SpringExecutor
	base   *datasource.Memory
	keyMap KeyMap
	styles Styles
	help   help.Model
	filter textinput.Model

	filtering bool
	query     string

	width, height int

	status    string
	statusErr bool

	send       atomic.Pointer[func(tea.Msg)]
	listOpts   []core.Option
	springOpts []SpringOption
}

type Option func(*Model)

func WithKeyMap(k KeyMap) Option {
	return func(m *Model) {
		m.keyMap = k
	}
}

func WithStyles(s Styles) Option {
	return func(m *Model) {
		m.styles = s
	}
}

// WithFilterBase enables filtering over the items of base.
func WithFilterBase(base *datasource.Memory) Option {
	return func(m *Model) {
		m.base = base
	}
}

// WithSpringExecutor replaces the default animation executor.
func WithSpringExecutor(e *SpringExecutor) Option {
	return func(m *Model) {
		m.exec = e
	}
}

// WithSpringOptions configures the default animation executor.
func WithSpringOptions(opts ...SpringOption) Option {
	return func(m *Model) {
		m.springOpts = append(m.springOpts, opts...)
	}
}

// WithListOptions passes options to the underlying control. They are applied
// after the component's own.
func WithListOptions(opts ...core.Option) Option {
	return func(m *Model) {
		m.listOpts = append(m.listOpts, opts...)
	}
}

func New(src datasource.Source, opts ...Option) *Model {
	m := &Model{
		keyMap: DefaultKeyMap(),
		styles: DefaultStyles(),
		help:   help.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.exec == nil {
		m.exec = NewSpringExecutor(append(m.springOpts, WithFrameNotify(m.frame))...)
	}
	m.help.Styles = m.styles.Help

	ti := textinput.New()
	ti.Placeholder = "Filter"
	ti.Prompt = "/ "
	ti.CharLimit = 128
	m.filter = ti

	base := []core.Option{
		core.WithExecutor(m.exec),
		core.WithHooks(core.Hooks{Event: m.onEvent}),
	}
	m.lv = core.New(src, renderer{}, append(base, m.listOpts...)...)
	return m
}

// List returns the underlying control.
func (m *Model) List() *core.ListView { return m.lv }

// SetSender connects the model to a running program, usually with
// tea.Program.Send.
func (m *Model) SetSender(send func(tea.Msg)) {
	m.send.Store(&send)
}

// Apply runs fn on the UI goroutine. Without a sender it runs immediately.
func (m *Model) Apply(fn func()) {
	send := m.send.Load()
	if send == nil {
		fn()
		return
	}
	(*send)(ApplyMsg(fn))
}

func (m *Model) frame() {
	if send := m.send.Load(); send != nil {
		(*send)(FrameMsg{})
	}
}

// Close disposes the control.
func (m *Model) Close() {
	m.lv.Dispose()
}

func (m *Model) Init() tea.Cmd {
	return m.lv.Init()
}

func (m *Model) listHeight() int {
	return max(0, m.height-footerHeight)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, m.lv.SetSize(m.width, m.listHeight())
	case FrameMsg:
		return m, nil
	case ApplyMsg:
		msg()
		return m, m.lv.Flush()
	case copiedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("copy: %w", msg.err))
		} else {
			m.setStatus(fmt.Sprintf("Copied %d item(s)", msg.count))
		}
		return m, nil
	case tea.KeyPressMsg:
		if m.filtering {
			return m, m.updateFilter(msg)
		}
		return m, m.handleKey(msg)
	case tea.MouseClickMsg:
		return m, m.handleClick(msg)
	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelDown:
			return m, m.lv.SetScrollPosition(m.lv.ScrollPosition() + wheelStep)
		case tea.MouseWheelUp:
			return m, m.lv.SetScrollPosition(m.lv.ScrollPosition() - wheelStep)
		}
		return m, nil
	}
	return m, m.lv.Update(msg)
}

var navigation = []struct {
	binding func(KeyMap) key.Binding
	key     selection.Key
}{
	{func(k KeyMap) key.Binding { return k.Up }, selection.KeyUp},
	{func(k KeyMap) key.Binding { return k.Down }, selection.KeyDown},
	{func(k KeyMap) key.Binding { return k.Left }, selection.KeyLeft},
	{func(k KeyMap) key.Binding { return k.Right }, selection.KeyRight},
	{func(k KeyMap) key.Binding { return k.PageUp }, selection.KeyPageUp},
	{func(k KeyMap) key.Binding { return k.PageDown }, selection.KeyPageDown},
	{func(k KeyMap) key.Binding { return k.Home }, selection.KeyHome},
	{func(k KeyMap) key.Binding { return k.End }, selection.KeyEnd},
	{func(k KeyMap) key.Binding { return k.Tab }, selection.KeyTab},
	{func(k KeyMap) key.Binding { return k.Toggle }, selection.KeySpace},
	{func(k KeyMap) key.Binding { return k.Invoke }, selection.KeyEnter},
	{func(k KeyMap) key.Binding { return k.SelectAll }, selection.KeySelectAll},
	{func(k KeyMap) key.Binding { return k.Clear }, selection.KeyEscape},
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return tea.Quit
	case key.Matches(msg, m.keyMap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keyMap.Filter):
		if m.base == nil {
			return nil
		}
		m.filtering = true
		m.filter.SetValue(m.query)
		return m.filter.Focus()
	case key.Matches(msg, m.keyMap.Copy):
		return m.copySelection()
	case key.Matches(msg, m.keyMap.Replay):
		return m.lv.ReplayEntrance()
	case key.Matches(msg, m.keyMap.Delete):
		return m.deleteFocused()
	}
	for _, nav := range navigation {
		if !key.Matches(msg, nav.binding(m.keyMap)) {
			continue
		}
		kp := selection.KeyPress{
			Key:   nav.key,
			Shift: msg.Mod.Contains(tea.ModShift),
			Ctrl:  msg.Mod.Contains(tea.ModCtrl),
		}
		_, cmd := m.lv.Key(kp)
		return cmd
	}
	return nil
}

func (m *Model) updateFilter(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keyMap.Accept):
		m.filtering = false
		m.filter.Blur()
		return m.SetFilter(m.filter.Value())
	case key.Matches(msg, m.keyMap.Cancel):
		m.filtering = false
		m.filter.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return cmd
}

// SetFilter shows the items of the filter base that fuzzy-match query. An
// empty query shows the base itself.
func (m *Model) SetFilter(query string) tea.Cmd {
	if m.base == nil {
		return nil
	}
	query = strings.TrimSpace(query)
	m.query = query
	if query == "" {
		return m.lv.SetItemDataSource(m.base)
	}
	src, err := datasource.NewFiltered(m.base, query)
	if err != nil {
		m.setError(fmt.Errorf("filter: %w", err))
		return nil
	}
	slog.Debug("Filtering list", "query", query, "matches", src.Len())
	return m.lv.SetItemDataSource(src)
}

// Filtering reports whether the filter input has focus.
func (m *Model) Filtering() bool { return m.filtering }

// Query returns the applied filter.
func (m *Model) Query() string { return m.query }

func (m *Model) copySelection() tea.Cmd {
	indices := m.lv.Selected()
	if len(indices) == 0 {
		if f := m.lv.CurrentItem(); f.Kind == entity.KindItem && f.HasIndex() {
			indices = []int{f.Index}
		}
	}
	var texts []string
	for _, i := range indices {
		if it, ok := m.lv.Item(i); ok {
			texts = append(texts, it.Text)
		}
	}
	if len(texts) == 0 {
		return nil
	}
	text := strings.Join(texts, "\n")
	return func() tea.Msg {
		return copiedMsg{count: len(texts), err: clipboard.WriteAll(text)}
	}
}

func (m *Model) deleteFocused() tea.Cmd {
	r, ok := m.lv.Source().(Remover)
	f := m.lv.CurrentItem()
	if !ok || f.Kind != entity.KindItem {
		return nil
	}
	if it, ok := m.lv.Item(f.Index); ok {
		f.Key = it.Key
	}
	if f.Key == "" {
		return nil
	}
	if err := r.RemoveKey(f.Key); err != nil {
		m.setError(fmt.Errorf("delete: %w", err))
		return nil
	}
	return m.lv.Flush()
}

// hitTest returns the entity drawn at column x of viewport row y.
func (m *Model) hitTest(x, y int) entity.Ref {
	if y < 0 || y >= m.listHeight() || m.lv.Count() == 0 {
		return entity.None()
	}
	lay := m.lv.Layout()
	row := m.lv.ScrollPosition() + y
	inside := func(k entity.Kind, i int) bool {
		r := lay.Measure(k, i)
		return x >= r.X && x < r.Right() && row >= r.Y && row < r.Bottom()
	}
	for _, gi := range lay.HeadersFromRange(row, row+1) {
		if inside(entity.KindHeader, gi) {
			return entity.Header(gi)
		}
	}
	vis := lay.ItemsFromRange(row, row+1)
	for i := vis.Start; i < vis.End; i++ {
		if inside(entity.KindItem, i) {
			return entity.Item(i)
		}
	}
	return entity.None()
}

func (m *Model) handleClick(msg tea.MouseClickMsg) tea.Cmd {
	ref := m.hitTest(msg.X, msg.Y)
	if !ref.IsValid() {
		return nil
	}
	p := selection.Pointer{
		Ref:   ref,
		Shift: msg.Mod.Contains(tea.ModShift),
		Ctrl:  msg.Mod.Contains(tea.ModCtrl),
	}
	switch msg.Button {
	case tea.MouseLeft:
		p.Button = selection.ButtonPrimary
	case tea.MouseRight:
		p.Button = selection.ButtonSecondary
	default:
		return nil
	}
	d, cmd := m.lv.Pointer(p)
	if d.Action == selection.ActionContextMenu {
		m.setStatus("No actions for " + ref.String())
	}
	return cmd
}

func (m *Model) onEvent(ev core.Event) {
	switch ev.Kind {
	case core.EventItemInvoked:
		text := ev.Ref.Key
		if it, ok := m.lv.Item(ev.Ref.Index); ok {
			text = it.Text
		}
		m.setStatus("Invoked " + text)
	case core.EventHeaderInvoked:
		m.setStatus("Group " + ev.Ref.Key)
	case core.EventError:
		m.setError(ev.Err)
	}
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(err error) {
	slog.Error("List error", "error", err)
	m.status, m.statusErr = err.Error(), true
}

// Status returns the last status message.
func (m *Model) Status() string { return m.status }

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.Base.Height(m.listHeight()).Render(m.drawList()),
		m.statusLine(),
		m.helpLine(),
	)
}

func (m *Model) statusLine() string {
	if m.filtering {
		return m.filter.View()
	}
	parts := []string{fmt.Sprintf("%d items", m.lv.Count())}
	if n := len(m.lv.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if m.query != "" {
		parts = append(parts, fmt.Sprintf("filter %q", m.query))
	}
	if m.lv.Loading() != core.Complete {
		parts = append(parts, m.lv.Loading().String())
	}
	line := m.styles.Status.Render(strings.Join(parts, " · "))
	if m.status != "" {
		style := m.styles.Status
		if m.statusErr {
			style = m.styles.Error
		}
		line += "  " + style.Render(m.status)
	}
	return line
}

func (m *Model) helpLine() string {
	if m.filtering {
		return m.help.View(filterKeyMap{m.keyMap})
	}
	return m.help.View(m.keyMap)
}
