package edit

import "fmt"

// Range is a half-open index range [Start, End).
type Range struct {
	Start int
	End   int
}

// Span returns the range [start, start+count).
func Span(start, count int) Range {
	return Range{Start: start, End: start + count}
}

// Empty reports whether the range covers no index.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether i is inside the range.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Union returns the smallest range covering both r and o. An empty operand
// does not widen the result.
func (r Range) Union(o Range) Range {
	switch {
	case r.Empty():
		return o
	case o.Empty():
		return r
	}
	return Range{Start: min(r.Start, o.Start), End: max(r.End, o.End)}
}

// Intersect returns the overlap of r and o, which may be empty.
func (r Range) Intersect(o Range) Range {
	out := Range{Start: max(r.Start, o.Start), End: min(r.End, o.End)}
	if out.Empty() {
		return Range{}
	}
	return out
}

// Clamp limits the range to [0, count).
func (r Range) Clamp(count int) Range {
	return r.Intersect(Range{Start: 0, End: count})
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}
