// Package listview is the controller of a virtualized, groupable list. It
// keeps a window of rendered containers around the viewport, applies data
// source edits to it incrementally and animates the result.
//
// A ListView is driven like a bubbletea model: every asynchronous step
// (fetching, rendering, layout, animation) is a tea.Cmd whose message is fed
// back through Update. Messages carry the generation they were issued in
// and are dropped once the generation moved on.
package listview

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/listview/internal/datasource"
	"github.com/charmbracelet/listview/internal/listview/anim"
	"github.com/charmbracelet/listview/internal/listview/aria"
	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/geom"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/charmbracelet/listview/internal/listview/indexmap"
	"github.com/charmbracelet/listview/internal/listview/layout"
	"github.com/charmbracelet/listview/internal/listview/notify"
	"github.com/charmbracelet/listview/internal/listview/realize"
	"github.com/charmbracelet/listview/internal/listview/selection"
	"github.com/charmbracelet/listview/internal/pubsub"
)

// ErrDisposed is returned by operations on a disposed view.
var ErrDisposed = entity.ErrDisposed

// Layout positions items and headers. *layout.Grid implements it.
type Layout interface {
	Initialize(host layout.Host)
	Layout(ctx context.Context, r edit.Range) error
	Navigate(ref entity.Ref, dir entity.Direction) (entity.Ref, error)
	ItemsFromRange(top, bottom int) edit.Range
	HeadersFromRange(top, bottom int) []int
	Measure(kind entity.Kind, index int) geom.Rect
	OffsetFor(ref entity.Ref) (int, error)
	ScrollIntoView(ref entity.Ref, offset int) (int, error)
	MaxFirstVisible() int
	MaxOffset() int
	TotalHeight() int
}

var _ Layout = (*layout.Grid)(nil)

// Renderer turns data into elements. It is called from tea.Cmd goroutines
// and must not touch the view.
type Renderer interface {
	RenderItem(ctx context.Context, item datasource.Item, index int) (any, error)
	RenderHeader(ctx context.Context, group groups.Group) (any, error)
}

// Releaser is implemented by renderers that want to know when a container
// is destroyed.
type Releaser interface {
	Release(c *realize.Container)
}

type options struct {
	layout     Layout
	executor   anim.Executor
	selection  selection.Config
	hooks      Hooks
	width      int
	height     int
	overscan   int
	animations bool
	entrance   bool
}

// Option configures a ListView.
type Option func(*options)

// WithLayout sets the layout. The default is a single column list.
func WithLayout(l Layout) Option {
	return func(o *options) {
		o.layout = l
	}
}

// WithExecutor sets the animation executor.
func WithExecutor(e anim.Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithSelection sets the selection mode and tap behavior.
func WithSelection(cfg selection.Config) Option {
	return func(o *options) {
		o.selection = cfg
	}
}

// WithHooks installs synchronous callbacks.
func WithHooks(h Hooks) Option {
	return func(o *options) {
		o.hooks = h
	}
}

// WithSize sets the viewport size.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithOverscan sets how many items are realized beyond each edge of the
// viewport.
func WithOverscan(n int) Option {
	return func(o *options) {
		o.overscan = max(0, n)
	}
}

// WithAnimations toggles transitions. Disabled batches still run through the
// executor but ask it to skip to the end state.
func WithAnimations(enabled bool) Option {
	return func(o *options) {
		o.animations = enabled
	}
}

// WithEntrance toggles the first-paint entrance animation.
func WithEntrance(enabled bool) Option {
	return func(o *options) {
		o.entrance = enabled
	}
}

// ListView is the list view controller.
type ListView struct {
	lifecycle Lifecycle
	gen       uint64
	ctx       context.Context
	cancel    context.CancelFunc

	source      datasource.Source
	unsubscribe func()
	renderer    Renderer
	layout      Layout
	executor    anim.Executor
	hooks       Hooks
	broker      *pubsub.Broker[Event]

	keys    *indexmap.Map
	groups  *groups.Index
	queue   *notify.Queue
	tracker *realize.Tracker
	sched   *anim.Scheduler
	machine *selection.Machine
	aria    *aria.Updater

	width, height int
	overscan      int
	animations    bool
	entrance      bool

	countKnown bool
	recount    bool
	offset     int
	loading    LoadingState

	// items caches fetched data by index for the realized window.
	items map[int]datasource.Item
	// headers holds realized header containers by group key.
	headers       map[string]*realize.Container
	headerPending map[string]uint64
	renderSeq     map[string]uint64
	nextContainer uint64
	nextRender    uint64
	pass          uint64

	// snapshot is the group layout before the batch being flushed.
	snapshot      []groups.Group
	snapshotTaken bool

	errReported bool
	pending     []tea.Cmd
}

// New creates a view over source. Nothing is fetched until the command
// returned by Init runs.
func New(source datasource.Source, renderer Renderer, opts ...Option) *ListView {
	o := options{
		executor:   anim.Immediate,
		selection:  selection.Config{Mode: selection.ModeMulti, Tap: selection.TapInvokeOnly},
		overscan:   2,
		animations: true,
		entrance:   true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.layout == nil {
		o.layout = layout.NewList()
	}
	lv := &ListView{
		source:        source,
		renderer:      renderer,
		layout:        o.layout,
		executor:      o.executor,
		hooks:         o.hooks,
		broker:        pubsub.NewBroker[Event](),
		keys:          indexmap.New(0),
		tracker:       realize.New(),
		sched:         anim.New(),
		aria:          aria.NewUpdater(),
		width:         o.width,
		height:        o.height,
		overscan:      o.overscan,
		animations:    o.animations,
		entrance:      o.entrance,
		items:         make(map[int]datasource.Item),
		headers:       make(map[string]*realize.Container),
		headerPending: make(map[string]uint64),
		renderSeq:     make(map[string]uint64),
	}
	lv.groups, _ = groups.New(nil)
	lv.queue = notify.New(lv.keys, lv.groups, lv.onBatch, lv.onSourceError)
	lv.machine = selection.New(o.selection, host{lv: lv}, machineEvents{lv: lv})
	lv.ctx, lv.cancel = context.WithCancel(context.Background())
	lv.gen = 1
	lv.subscribe()
	return lv
}

// Init starts loading the data source.
func (lv *ListView) Init() tea.Cmd {
	if lv.lifecycle == Disposed {
		return nil
	}
	lv.loading = LoadingItems
	lv.emit(Event{Kind: EventLoadingStateChanged, Loading: LoadingItems})
	return lv.fetchCount()
}

func (lv *ListView) subscribe() {
	if lv.source == nil {
		return
	}
	lv.unsubscribe = lv.source.Subscribe(lv)
}

// newGeneration cancels everything issued so far. Messages of the old
// generation are dropped on arrival.
func (lv *ListView) newGeneration() {
	lv.cancel()
	lv.ctx, lv.cancel = context.WithCancel(context.Background())
	lv.gen++
	lv.errReported = false
	lv.pass = 0
	clear(lv.headerPending)
	clear(lv.renderSeq)
	lv.release(lv.sched.Cancel()...)
	slog.Debug("List view generation started", "gen", lv.gen)
}

// resetRealized drops every container and cached item.
func (lv *ListView) resetRealized() {
	lv.release(lv.tracker.Reset()...)
	for _, c := range lv.headers {
		lv.release(c)
	}
	clear(lv.headers)
	clear(lv.items)
	lv.aria.Reset()
}

func (lv *ListView) release(cs ...*realize.Container) {
	r, ok := lv.renderer.(Releaser)
	if !ok {
		return
	}
	for _, c := range cs {
		if c != nil {
			r.Release(c)
		}
	}
}

// Generation returns the current generation token.
func (lv *ListView) Generation() uint64 { return lv.gen }

// Lifecycle returns whether the view is active or disposed.
func (lv *ListView) Lifecycle() Lifecycle { return lv.lifecycle }

// Loading returns the current loading state.
func (lv *ListView) Loading() LoadingState { return lv.loading }

// Subscribe returns a channel of published events.
func (lv *ListView) Subscribe(ctx context.Context) <-chan pubsub.Event[Event] {
	return lv.broker.Subscribe(ctx)
}

// Dispose detaches the view from its source and cancels all outstanding
// work. Later messages are ignored and operations return ErrDisposed.
func (lv *ListView) Dispose() {
	if lv.lifecycle == Disposed {
		return
	}
	slog.Debug("Disposing list view", "gen", lv.gen)
	if lv.unsubscribe != nil {
		lv.unsubscribe()
		lv.unsubscribe = nil
	}
	lv.queue.Reset()
	lv.newGeneration()
	lv.cancel()
	lv.resetRealized()
	lv.pending = nil
	lv.lifecycle = Disposed
	lv.broker.Shutdown()
}

// Flush returns the work queued by synchronous calls, such as data source
// notifications or input handling, as a single command.
func (lv *ListView) Flush() tea.Cmd {
	if len(lv.pending) == 0 {
		return nil
	}
	cmds := lv.pending
	lv.pending = nil
	return tea.Batch(cmds...)
}

func (lv *ListView) enqueue(cmds ...tea.Cmd) {
	for _, c := range cmds {
		if c != nil {
			lv.pending = append(lv.pending, c)
		}
	}
}
