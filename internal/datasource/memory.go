package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/charmbracelet/listview/internal/csync"
	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/groups"
)

type memoryOptions struct {
	grouped bool
	gate    func(ctx context.Context) error
}

// MemoryOption configures a Memory source.
type MemoryOption func(*memoryOptions)

// WithGrouping groups items by Item.Group. Items of one group must be
// contiguous.
func WithGrouping() MemoryOption {
	return func(o *memoryOptions) {
		o.grouped = true
	}
}

// WithFetchGate runs gate before every fetch. A gate can block to simulate a
// slow source or fail to simulate a broken one.
func WithFetchGate(gate func(ctx context.Context) error) MemoryOption {
	return func(o *memoryOptions) {
		o.gate = gate
	}
}

// Memory is a mutable in-memory source. Mutations notify subscribers
// synchronously, after the source lock is released.
type Memory struct {
	mu    sync.RWMutex
	items []Item
	index map[string]int
	opts  memoryOptions

	listeners *csync.Map[uint64, Listener]
	nextSub   uint64
	subMu     sync.Mutex
}

var (
	_ Source  = (*Memory)(nil)
	_ Grouped = (*Memory)(nil)
)

// NewMemory returns a source holding a copy of items. Keys must be unique.
func NewMemory(items []Item, opts ...MemoryOption) (*Memory, error) {
	m := &Memory{listeners: csync.NewMap[uint64, Listener]()}
	for _, opt := range opts {
		opt(&m.opts)
	}
	if err := m.reset(items); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Memory) reset(items []Item) error {
	index := make(map[string]int, len(items))
	for i, it := range items {
		if it.Key == "" {
			return fmt.Errorf("item %d: empty key", i)
		}
		if _, dup := index[it.Key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, it.Key)
		}
		index[it.Key] = i
	}
	m.items = slices.Clone(items)
	m.index = index
	return nil
}

func (m *Memory) reindex() {
	clear(m.index)
	for i, it := range m.items {
		m.index[it.Key] = i
	}
}

func (m *Memory) fetchGate(ctx context.Context) error {
	if m.opts.gate != nil {
		if err := m.opts.gate(ctx); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Count implements Source.
func (m *Memory) Count(ctx context.Context) (int, error) {
	if err := m.fetchGate(ctx); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

// ItemsFromIndex implements Source.
func (m *Memory) ItemsFromIndex(ctx context.Context, index, before, after int) (Result, error) {
	if err := m.fetchGate(ctx); err != nil {
		return Result{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := entity.CheckIndex("itemsFromIndex", index, len(m.items)); err != nil {
		return Result{}, err
	}
	return window(m.items, index, before, after), nil
}

// ItemsFromKey implements Source.
func (m *Memory) ItemsFromKey(ctx context.Context, key string, before, after int) (Result, error) {
	if err := m.fetchGate(ctx); err != nil {
		return Result{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[key]
	if !ok {
		return Result{}, fmt.Errorf("itemsFromKey %q: %w", key, entity.ErrKeyNotFound)
	}
	return window(m.items, i, before, after), nil
}

// Groups implements Grouped. Ungrouped sources return nil.
func (m *Memory) Groups(ctx context.Context) ([]groups.Group, error) {
	if !m.opts.grouped {
		return nil, nil
	}
	if err := m.fetchGate(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	gs := groupRuns(m.items)
	seen := make(map[string]bool, len(gs))
	for _, g := range gs {
		if seen[g.Key] {
			return nil, fmt.Errorf("group %q is not contiguous", g.Key)
		}
		seen[g.Key] = true
	}
	return gs, nil
}

// Subscribe implements Source.
func (m *Memory) Subscribe(l Listener) func() {
	m.subMu.Lock()
	m.nextSub++
	id := m.nextSub
	m.subMu.Unlock()
	m.listeners.Set(id, l)
	return func() { m.listeners.Del(id) }
}

// Subscribers returns the number of listeners.
func (m *Memory) Subscribers() int { return m.listeners.Len() }

func (m *Memory) each(fn func(Listener)) {
	for _, l := range m.listeners.Seq2() {
		fn(l)
	}
}

// BeginEdits opens a notification batch on every subscriber.
func (m *Memory) BeginEdits() { m.each(func(l Listener) { l.BeginEdits() }) }

// EndEdits closes a notification batch on every subscriber.
func (m *Memory) EndEdits() { m.each(func(l Listener) { l.EndEdits() }) }

func (m *Memory) notify(e edit.Edit) {
	slog.Debug("Memory source edit", "edit", e.String())
	m.each(func(l Listener) { l.Notify(e) })
}

// Len returns the number of items.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Items returns a copy of all items.
func (m *Memory) Items() []Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.items)
}

// ItemAt returns the item at index i.
func (m *Memory) ItemAt(i int) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := entity.CheckIndex("itemAt", i, len(m.items)); err != nil {
		return Item{}, err
	}
	return m.items[i], nil
}

// IndexOf returns the index of key.
func (m *Memory) IndexOf(key string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[key]
	return i, ok
}

// Insert adds items at index at.
func (m *Memory) Insert(at int, items ...Item) error {
	if len(items) == 0 {
		return nil
	}
	m.mu.Lock()
	if at < 0 || at > len(m.items) {
		m.mu.Unlock()
		return entity.NewInvalidIndex("insert", at, len(m.items)+1)
	}
	for _, it := range items {
		if _, dup := m.index[it.Key]; dup || it.Key == "" {
			m.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicateKey, it.Key)
		}
	}
	m.items = slices.Insert(m.items, at, items...)
	m.reindex()
	m.mu.Unlock()
	e := edit.InsertKeys(at, keysOf(items)...)
	if m.opts.grouped {
		e = e.InGroups(GroupsOf(items)...)
	}
	m.notify(e)
	return nil
}

// Append adds items at the end.
func (m *Memory) Append(items ...Item) error {
	return m.Insert(m.Len(), items...)
}

// Remove deletes count items starting at at.
func (m *Memory) Remove(at, count int) error {
	m.mu.Lock()
	if count <= 0 || at < 0 || at+count > len(m.items) {
		n := len(m.items)
		m.mu.Unlock()
		return entity.NewInvalidIndex("remove", at+max(count, 1)-1, n)
	}
	m.items = slices.Delete(m.items, at, at+count)
	m.reindex()
	m.mu.Unlock()
	m.notify(edit.Remove(at, count))
	return nil
}

// RemoveKey deletes the item with key.
func (m *Memory) RemoveKey(key string) error {
	i, ok := m.IndexOf(key)
	if !ok {
		return fmt.Errorf("remove %q: %w", key, entity.ErrKeyNotFound)
	}
	return m.Remove(i, 1)
}

// Move relocates the item at from to index to.
func (m *Memory) Move(from, to int) error {
	m.mu.Lock()
	n := len(m.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		m.mu.Unlock()
		return entity.NewInvalidIndex("move", max(from, to), n)
	}
	it := m.items[from]
	m.items = slices.Delete(m.items, from, from+1)
	m.items = slices.Insert(m.items, to, it)
	m.reindex()
	m.mu.Unlock()
	e := edit.Move(from, to)
	if m.opts.grouped {
		e = e.InGroup(it.Group)
	}
	m.notify(e)
	return nil
}

// Change replaces the item at at. The key may change as long as it stays
// unique.
func (m *Memory) Change(at int, it Item) error {
	m.mu.Lock()
	if err := entity.CheckIndex("change", at, len(m.items)); err != nil {
		m.mu.Unlock()
		return err
	}
	if j, ok := m.index[it.Key]; it.Key == "" || (ok && j != at) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateKey, it.Key)
	}
	m.items[at] = it
	m.reindex()
	m.mu.Unlock()
	e := edit.Edit{Op: edit.OpChange, At: at, Key: it.Key}
	if m.opts.grouped {
		e = e.InGroup(it.Group)
	}
	m.notify(e)
	return nil
}

// Reload replaces every item and tells subscribers to start over.
func (m *Memory) Reload(items []Item) error {
	m.mu.Lock()
	if err := m.reset(items); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()
	m.notify(edit.Reload())
	return nil
}

// Replace swaps the items in [at, at+count) for items as a single batch of
// a removal and an insertion.
func (m *Memory) Replace(at, count int, items ...Item) error {
	m.BeginEdits()
	defer m.EndEdits()
	if count > 0 {
		if err := m.Remove(at, count); err != nil {
			return err
		}
	}
	return m.Insert(at, items...)
}
