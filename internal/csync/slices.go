package csync

import (
	"iter"
	"slices"
	"sync"
)

// Slice is a concurrency-safe slice.
type Slice[T any] struct {
	inner []T
	mu    sync.RWMutex
}

func NewSlice[T any]() *Slice[T] {
	return &Slice[T]{}
}

// NewSliceFrom wraps a copy of s.
func NewSliceFrom[T any](s []T) *Slice[T] {
	return &Slice[T]{inner: slices.Clone(s)}
}

func (s *Slice[T]) Append(items ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner = append(s.inner, items...)
}

func (s *Slice[T]) Get(index int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var zero T
	if index < 0 || index >= len(s.inner) {
		return zero, false
	}
	return s.inner[index], true
}

func (s *Slice[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inner)
}

// SetSlice replaces the content with a copy of items.
func (s *Slice[T]) SetSlice(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner = slices.Clone(items)
}

// Drain empties the slice and returns what it held.
func (s *Slice[T]) Drain() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.inner
	s.inner = nil
	return out
}

// Seq iterates over a snapshot.
func (s *Slice[T]) Seq() iter.Seq[T] {
	s.mu.RLock()
	snapshot := slices.Clone(s.inner)
	s.mu.RUnlock()
	return slices.Values(snapshot)
}
