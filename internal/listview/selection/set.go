package selection

import (
	"slices"

	"github.com/charmbracelet/listview/internal/listview/edit"
)

// Set is an ordered set of item indices.
type Set struct {
	idx []int
}

// NewSet returns a set holding indices.
func NewSet(indices ...int) Set {
	var s Set
	for _, i := range indices {
		s.Add(i)
	}
	return s
}

// Range returns the set [a, b] regardless of argument order.
func Range(a, b int) Set {
	lo, hi := min(a, b), max(a, b)
	s := Set{idx: make([]int, 0, hi-lo+1)}
	for i := lo; i <= hi; i++ {
		s.idx = append(s.idx, i)
	}
	return s
}

// Len returns the number of indices.
func (s Set) Len() int { return len(s.idx) }

// Indices returns a copy of the indices in ascending order.
func (s Set) Indices() []int { return slices.Clone(s.idx) }

// Contains reports whether i is in the set.
func (s Set) Contains(i int) bool {
	_, ok := slices.BinarySearch(s.idx, i)
	return ok
}

// Add inserts i.
func (s *Set) Add(i int) {
	at, ok := slices.BinarySearch(s.idx, i)
	if !ok {
		s.idx = slices.Insert(s.idx, at, i)
	}
}

// Remove deletes i.
func (s *Set) Remove(i int) {
	if at, ok := slices.BinarySearch(s.idx, i); ok {
		s.idx = slices.Delete(s.idx, at, at+1)
	}
}

// Toggle flips membership of i.
func (s *Set) Toggle(i int) {
	if s.Contains(i) {
		s.Remove(i)
		return
	}
	s.Add(i)
}

// Union returns s ∪ o.
func (s Set) Union(o Set) Set {
	out := s.Clone()
	for _, i := range o.idx {
		out.Add(i)
	}
	return out
}

// Clone returns an independent copy.
func (s Set) Clone() Set { return Set{idx: slices.Clone(s.idx)} }

// Equal reports whether both sets hold the same indices.
func (s Set) Equal(o Set) bool { return slices.Equal(s.idx, o.idx) }

// First returns the lowest index, or -1.
func (s Set) First() int {
	if len(s.idx) == 0 {
		return -1
	}
	return s.idx[0]
}

// Apply remaps the set through e. Removed indices drop out.
func (s Set) Apply(e edit.Edit) Set {
	var out Set
	for _, i := range s.idx {
		if ni, ok := e.MapIndex(i); ok {
			out.Add(ni)
		}
	}
	return out
}
