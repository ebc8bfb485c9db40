package layout

import (
	"github.com/charmbracelet/listview/internal/listview/entity"
)

// Navigate returns the entity that lies in direction dir from ref. At the
// edges of the content ref itself is returned. Headers navigate along the
// header track.
func (g *Grid) Navigate(ref entity.Ref, dir entity.Direction) (entity.Ref, error) {
	if ref.Kind == entity.KindHeader {
		return g.navigateHeader(ref, dir)
	}
	if g.count == 0 {
		return entity.None(), nil
	}
	if err := entity.CheckIndex("navigate", ref.Index, g.count); err != nil {
		return ref, err
	}
	i := ref.Index
	switch dir {
	case entity.DirHome:
		i = 0
	case entity.DirEnd:
		i = g.count - 1
	case entity.DirPageUp:
		i = max(0, i-g.PageSize())
	case entity.DirPageDown:
		i = min(g.count-1, i+g.PageSize())
	case entity.DirLeft:
		if g.columns == 1 {
			i = max(0, i-1)
		} else {
			i = g.horizontal(i, -1)
		}
	case entity.DirRight:
		if g.columns == 1 {
			i = min(g.count-1, i+1)
		} else {
			i = g.horizontal(i, 1)
		}
	case entity.DirUp:
		i = g.vertical(i, -1)
	case entity.DirDown:
		i = g.vertical(i, 1)
	}
	return entity.Item(i), nil
}

// horizontal moves within the row of i; at the row edges it stays.
func (g *Grid) horizontal(i, step int) int {
	_, start, _ := g.groupOf(i)
	col := (i - start) % g.columns
	next := i + step
	if col+step < 0 || col+step >= g.columns || next < 0 || next >= g.count {
		return i
	}
	if gi, _, _ := g.groupOf(next); len(g.groups) > 0 && g.groups[gi].Start != start {
		return i
	}
	return next
}

// vertical moves one row up or down, keeping the column. Crossing into
// another group lands on the nearest row of that group, clamped to its
// last item.
func (g *Grid) vertical(i, step int) int {
	if len(g.groups) == 0 {
		next := i + step*g.columns
		if next < 0 {
			return i
		}
		if next >= g.count {
			// The last row may be short.
			if g.rowsFor(i+1) < g.rowsFor(g.count) {
				return g.count - 1
			}
			return i
		}
		return next
	}
	gi, start, _ := g.groupOf(i)
	grp := g.groups[gi]
	local := i - start
	col := local % g.columns
	next := local + step*g.columns
	switch {
	case next >= 0 && next < grp.Count:
		return start + next
	case step > 0 && g.rowsFor(local+1) < g.rowsFor(grp.Count):
		return grp.End() - 1
	}
	for target := gi + step; target >= 0 && target < len(g.groups); target += step {
		tg := g.groups[target]
		if tg.Count == 0 {
			continue
		}
		if step > 0 {
			return tg.Start + min(col, tg.Count-1)
		}
		lastRow := (tg.Count - 1) / g.columns
		return tg.Start + min(lastRow*g.columns+col, tg.Count-1)
	}
	return i
}

func (g *Grid) navigateHeader(ref entity.Ref, dir entity.Direction) (entity.Ref, error) {
	var nonEmpty []int
	for gi, grp := range g.groups {
		if grp.Count > 0 {
			nonEmpty = append(nonEmpty, gi)
		}
	}
	if len(nonEmpty) == 0 {
		return entity.None(), nil
	}
	if err := entity.CheckIndex("navigate", ref.Index, len(g.groups)); err != nil {
		return ref, err
	}
	pos := 0
	for k, gi := range nonEmpty {
		if gi <= ref.Index {
			pos = k
		}
	}
	switch dir {
	case entity.DirHome:
		pos = 0
	case entity.DirEnd:
		pos = len(nonEmpty) - 1
	case entity.DirUp, entity.DirLeft, entity.DirPageUp:
		pos = max(0, pos-1)
	case entity.DirDown, entity.DirRight, entity.DirPageDown:
		pos = min(len(nonEmpty)-1, pos+1)
	}
	gi := nonEmpty[pos]
	return entity.Ref{Kind: entity.KindHeader, Index: gi, Key: g.groups[gi].Key}, nil
}
