// Package groups partitions the flat item index space into ordered groups.
package groups

import (
	"fmt"
	"slices"
	"sort"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
)

// Group is one partition of the item space. Header is whatever the data
// source supplies for rendering the group header.
type Group struct {
	Key    string
	Start  int
	Count  int
	Header any
}

// End returns the index after the last item of the group.
func (g Group) End() int { return g.Start + g.Count }

// Range returns the group's items as a range.
func (g Group) Range() edit.Range { return edit.Span(g.Start, g.Count) }

// Index is the Group Index. An Index with no groups describes an ungrouped
// list and answers every query with entity.Invalid.
type Index struct {
	groups []Group
}

// New builds an index from group boundaries, which must be contiguous and
// start at zero.
func New(gs []Group) (*Index, error) {
	ix := &Index{}
	if err := ix.Rebuild(gs); err != nil {
		return nil, err
	}
	return ix, nil
}

// FromCounts builds contiguous groups out of keys and item counts.
func FromCounts(keys []string, counts []int) []Group {
	out := make([]Group, 0, len(keys))
	start := 0
	for i, k := range keys {
		out = append(out, Group{Key: k, Start: start, Count: counts[i]})
		start += counts[i]
	}
	return out
}

// Rebuild replaces the groups.
func (ix *Index) Rebuild(gs []Group) error {
	next := 0
	seen := make(map[string]bool, len(gs))
	for i, g := range gs {
		if g.Start != next {
			return fmt.Errorf("group %d (%q) starts at %d, expected %d", i, g.Key, g.Start, next)
		}
		if g.Count < 0 {
			return fmt.Errorf("group %d (%q) has negative count %d", i, g.Key, g.Count)
		}
		if seen[g.Key] {
			return fmt.Errorf("duplicate group key %q", g.Key)
		}
		seen[g.Key] = true
		next = g.End()
	}
	ix.groups = append(ix.groups[:0], gs...)
	return nil
}

// Len returns the number of groups, including transiently empty ones.
func (ix *Index) Len() int { return len(ix.groups) }

// Grouped reports whether the list has groups at all.
func (ix *Index) Grouped() bool { return len(ix.groups) > 0 }

// Total returns the number of items covered by the groups.
func (ix *Index) Total() int {
	if len(ix.groups) == 0 {
		return 0
	}
	return ix.groups[len(ix.groups)-1].End()
}

// Groups returns a copy of the groups.
func (ix *Index) Groups() []Group {
	out := make([]Group, len(ix.groups))
	copy(out, ix.groups)
	return out
}

// Group returns the group at gi.
func (ix *Index) Group(gi int) (Group, error) {
	if err := entity.CheckIndex("group", gi, len(ix.groups)); err != nil {
		return Group{}, err
	}
	return ix.groups[gi], nil
}

// IndexOfKey returns the position of the group with key, or entity.Invalid.
func (ix *Index) IndexOfKey(key string) int {
	for i, g := range ix.groups {
		if g.Key == key {
			return i
		}
	}
	return entity.Invalid
}

// GroupForIndex returns the group containing item i. Empty groups never
// contain anything.
func (ix *Index) GroupForIndex(i int) (int, error) {
	if len(ix.groups) == 0 {
		return entity.Invalid, nil
	}
	if err := entity.CheckIndex("groupForIndex", i, ix.Total()); err != nil {
		return entity.Invalid, err
	}
	// Ends are non-decreasing, so the first group ending after i holds it.
	gi := sort.Search(len(ix.groups), func(g int) bool {
		return ix.groups[g].End() > i
	})
	return gi, nil
}

// GroupRange returns the start index and count of group gi.
func (ix *Index) GroupRange(gi int) (start, count int, err error) {
	g, err := ix.Group(gi)
	if err != nil {
		return 0, 0, err
	}
	return g.Start, g.Count, nil
}

// Intersecting returns the indices of non-empty groups with items in r.
func (ix *Index) Intersecting(r edit.Range) []int {
	var out []int
	for gi, g := range ix.groups {
		if g.Count == 0 {
			continue
		}
		if !g.Range().Intersect(r).Empty() {
			out = append(out, gi)
		}
	}
	return out
}

// groupForInsert picks the group receiving an insert at index at. Groups own
// their start index, so an insert at a boundary joins the group that starts
// there; an append joins the last group.
func (ix *Index) groupForInsert(at int) int {
	for gi, g := range ix.groups {
		if at >= g.Start && at < g.End() {
			return gi
		}
		if at == g.Start && g.Count == 0 {
			return gi
		}
	}
	return len(ix.groups) - 1
}

func (ix *Index) restart() {
	next := 0
	for i := range ix.groups {
		ix.groups[i].Start = next
		next += ix.groups[i].Count
	}
}

// Apply updates the group boundaries for one edit. Items that carry a group
// key join the adjacent group of that key or open a new group; the others
// are placed by position. Removing every item of a group leaves it empty
// until Compact.
func (ix *Index) Apply(e edit.Edit) error {
	if len(ix.groups) == 0 && !opensGroup(e) {
		return nil
	}
	if err := e.Validate(ix.Total()); err != nil {
		return err
	}
	switch e.Op {
	case edit.OpInsert:
		if len(e.Groups) == 0 {
			ix.groups[ix.groupForInsert(e.At)].Count += e.Count
			break
		}
		for j, key := range e.Groups {
			ix.place(e.At+j, key)
			ix.restart()
		}
	case edit.OpRemove:
		ix.remove(e.At, e.Count)
	case edit.OpMove:
		if e.From == e.To && e.Group == "" {
			return nil
		}
		ix.remove(e.From, 1)
		ix.restart()
		if e.Group != "" {
			ix.place(e.To, e.Group)
			break
		}
		// Moving forward lands right after the item that was at To, so the
		// moved item joins that item's group.
		gi := ix.groupForInsert(e.To)
		if e.From < e.To {
			if g, err := ix.GroupForIndex(e.To - 1); err == nil {
				gi = g
			}
		}
		ix.groups[gi].Count++
	case edit.OpChange:
		if e.Group == "" {
			return nil
		}
		if gi, err := ix.GroupForIndex(e.At); err == nil && ix.groups[gi].Key == e.Group {
			return nil
		}
		ix.remove(e.At, 1)
		ix.restart()
		ix.place(e.At, e.Group)
	case edit.OpReload:
		return nil
	}
	ix.restart()
	return nil
}

func opensGroup(e edit.Edit) bool {
	return e.Op == edit.OpInsert && slices.ContainsFunc(e.Groups, func(k string) bool { return k != "" })
}

// place adds one item at pos. Starts must be current.
func (ix *Index) place(pos int, key string) {
	if key != "" {
		for gi, g := range ix.groups {
			if g.Key == key && g.Start <= pos && pos <= g.End() {
				ix.groups[gi].Count++
				return
			}
		}
		if gi := ix.IndexOfKey(key); gi != entity.Invalid && ix.groups[gi].Count == 0 {
			ix.groups = slices.Delete(ix.groups, gi, gi+1)
		}
		if ix.IndexOfKey(key) == entity.Invalid {
			if gi, ok := ix.boundary(pos); ok {
				ix.groups = slices.Insert(ix.groups, gi, Group{Key: key, Start: pos, Count: 1})
				return
			}
		}
	}
	if len(ix.groups) == 0 {
		return
	}
	ix.groups[ix.groupForInsert(pos)].Count++
}

// boundary returns where a group starting at pos can be inserted. Positions
// inside a non-empty group have none.
func (ix *Index) boundary(pos int) (int, bool) {
	if pos == ix.Total() {
		return len(ix.groups), true
	}
	for gi, g := range ix.groups {
		if g.Start == pos {
			return gi, true
		}
		if g.Start > pos {
			break
		}
	}
	return 0, false
}

func (ix *Index) remove(at, count int) {
	span := edit.Span(at, count)
	for i := range ix.groups {
		ix.groups[i].Count -= ix.groups[i].Range().Intersect(span).Len()
	}
}

// Compact drops groups that became empty.
func (ix *Index) Compact() {
	out := ix.groups[:0]
	for _, g := range ix.groups {
		if g.Count > 0 {
			out = append(out, g)
		}
	}
	ix.groups = out
}
