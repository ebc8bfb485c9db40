// Package indexmap keeps the bidirectional mapping between durable item
// keys and their current positions, and carries outstanding references
// through structural edits.
package indexmap

import (
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
)

// Handle is a tracked entity reference. Its index follows inserts, removes
// and moves. When the item is removed the index becomes entity.Invalid and
// the handle reports Lost; the key is kept so the caller can re-resolve.
type Handle struct {
	key   string
	index int
	lost  bool
}

// Index returns the current index or entity.Invalid.
func (h *Handle) Index() int { return h.index }

// Key returns the key, which may be empty when it was never resolved.
func (h *Handle) Key() string { return h.key }

// Lost reports whether the referenced item was removed.
func (h *Handle) Lost() bool { return h.lost }

// Ref returns the handle as an item reference.
func (h *Handle) Ref() entity.Ref {
	return entity.Ref{Kind: entity.KindItem, Index: h.index, Key: h.key}
}

// Map is the Index/Key Map. It only knows the pairs it has been told about
// (usually the fetched window) but always knows the total count.
type Map struct {
	count   int
	byKey   map[string]int
	byIndex map[int]string
	handles map[*Handle]struct{}
}

// New returns an empty map for a list of count items.
func New(count int) *Map {
	return &Map{
		count:   count,
		byKey:   make(map[string]int),
		byIndex: make(map[int]string),
		handles: make(map[*Handle]struct{}),
	}
}

// Count returns the item count the map believes in.
func (m *Map) Count() int { return m.count }

// Known returns how many key/index pairs are recorded.
func (m *Map) Known() int { return len(m.byKey) }

// Reset forgets every pair and sets a new count. Outstanding handles keep
// their keys but lose their indices until the key is seen again.
func (m *Map) Reset(count int) {
	m.count = count
	clear(m.byKey)
	clear(m.byIndex)
	for h := range m.handles {
		h.index = entity.Invalid
	}
}

// SetCount updates the count without touching known pairs beyond it.
func (m *Map) SetCount(count int) {
	m.count = count
	for i, k := range m.byIndex {
		if i >= count {
			delete(m.byIndex, i)
			delete(m.byKey, k)
		}
	}
}

// Set records that key lives at index.
func (m *Map) Set(index int, key string) error {
	if err := entity.CheckIndex("indexmap.Set", index, m.count); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("indexmap.Set: empty key at index %d", index)
	}
	if prev, ok := m.byIndex[index]; ok && prev != key {
		delete(m.byKey, prev)
	}
	if prev, ok := m.byKey[key]; ok && prev != index {
		delete(m.byIndex, prev)
	}
	m.byKey[key] = index
	m.byIndex[index] = key
	for h := range m.handles {
		switch {
		case h.key == key && h.index != index:
			h.index = index
			h.lost = false
		case h.key == "" && h.index == index:
			h.key = key
		}
	}
	return nil
}

// KeyForIndex returns the key at index i. Out of range indices fail with an
// InvalidIndexError, unknown ones with entity.ErrKeyNotFound.
func (m *Map) KeyForIndex(i int) (string, error) {
	if err := entity.CheckIndex("keyForIndex", i, m.count); err != nil {
		return "", err
	}
	k, ok := m.byIndex[i]
	if !ok {
		return "", entity.ErrKeyNotFound
	}
	return k, nil
}

// IndexForKey returns the index of key, or entity.ErrKeyNotFound.
func (m *Map) IndexForKey(key string) (int, error) {
	i, ok := m.byKey[key]
	if !ok {
		return entity.Invalid, entity.ErrKeyNotFound
	}
	return i, nil
}

// Resolve fills in whichever half of ref is missing. It fails with an
// InvalidIndexError for out of range indices and entity.ErrKeyNotFound when
// a key is unknown. Headers are returned untouched.
func (m *Map) Resolve(ref entity.Ref) (entity.Ref, error) {
	if ref.Kind != entity.KindItem {
		return ref, nil
	}
	switch {
	case ref.HasIndex():
		if err := entity.CheckIndex("resolve", ref.Index, m.count); err != nil {
			return ref, err
		}
		if k, ok := m.byIndex[ref.Index]; ok {
			ref.Key = k
		}
		return ref, nil
	case ref.Key != "":
		i, err := m.IndexForKey(ref.Key)
		if err != nil {
			return ref, err
		}
		ref.Index = i
		return ref, nil
	}
	return ref, entity.NewInvalidIndex("resolve", ref.Index, m.count)
}

// Track starts following ref through edits. Release must be called when the
// handle is no longer needed.
func (m *Map) Track(ref entity.Ref) *Handle {
	h := &Handle{key: ref.Key, index: entity.Invalid}
	if ref.HasIndex() && ref.Index < m.count {
		h.index = ref.Index
	}
	if h.key == "" && h.index >= 0 {
		h.key = m.byIndex[h.index]
	}
	if h.index < 0 && h.key != "" {
		if i, ok := m.byKey[h.key]; ok {
			h.index = i
		}
	}
	m.handles[h] = struct{}{}
	return h
}

// Release stops tracking h.
func (m *Map) Release(h *Handle) {
	delete(m.handles, h)
}

// Apply remaps every known pair and tracked handle through e. The edit is
// validated against the current count first.
func (m *Map) Apply(e edit.Edit) error {
	if err := e.Validate(m.count); err != nil {
		return err
	}
	if e.Op == edit.OpReload {
		m.Reset(m.count)
		return nil
	}

	byIndex := make(map[int]string, len(m.byIndex)+len(e.Keys))
	for i, k := range m.byIndex {
		ni, ok := e.MapIndex(i)
		if !ok {
			delete(m.byKey, k)
			continue
		}
		byIndex[ni] = k
		m.byKey[k] = ni
	}
	m.byIndex = byIndex
	m.count += e.Delta()

	for h := range m.handles {
		if h.index < 0 {
			continue
		}
		ni, ok := e.MapIndex(h.index)
		if !ok {
			h.index = entity.Invalid
			h.lost = true
			continue
		}
		h.index = ni
	}

	switch e.Op {
	case edit.OpInsert:
		for j, k := range e.Keys {
			if k != "" {
				_ = m.Set(e.At+j, k)
			}
		}
	case edit.OpChange:
		if e.Key != "" {
			_ = m.Set(e.At, e.Key)
		}
	}
	return nil
}

// Remap applies edits in order and stops at the first invalid one.
func (m *Map) Remap(edits ...edit.Edit) error {
	for _, e := range edits {
		if err := m.Apply(e); err != nil {
			return err
		}
	}
	return nil
}

// Trim forgets pairs outside keep that no handle refers to.
func (m *Map) Trim(keep edit.Range) {
	pinned := make(map[string]bool, len(m.handles))
	for h := range m.handles {
		pinned[h.key] = true
	}
	for i, k := range m.byIndex {
		if keep.Contains(i) || pinned[k] {
			continue
		}
		delete(m.byIndex, i)
		delete(m.byKey, k)
	}
}

// Keys returns the known keys sorted by index.
func (m *Map) Keys() []string {
	idx := slices.Sorted(maps.Keys(m.byIndex))
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, m.byIndex[i])
	}
	return out
}
