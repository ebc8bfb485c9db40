// Package layout places items and group headers on a row/column grid
// measured in terminal cells and answers the geometric questions the
// control asks: which items cover a band of rows, where an entity is and
// which entity lies in a given direction.
package layout

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/geom"
	"github.com/charmbracelet/listview/internal/listview/groups"
)

// Host is what a layout needs from the control.
type Host interface {
	Count() int
	Groups() []groups.Group
	ViewportSize() (width, height int)
}

// Kind selects the layout.
type Kind int

const (
	KindList Kind = iota
	KindGrid
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindGrid:
		return "grid"
	default:
		return fmt.Sprintf("layout(%d)", int(k))
	}
}

// ParseKind parses "list" or "grid".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "list":
		return KindList, nil
	case "grid":
		return KindGrid, nil
	}
	return KindList, fmt.Errorf("unknown layout %q", s)
}

type options struct {
	columns      int
	itemHeight   int
	headerHeight int
}

// Option configures a layout.
type Option func(*options)

// WithColumns sets the number of columns of a grid.
func WithColumns(n int) Option {
	return func(o *options) {
		o.columns = max(1, n)
	}
}

// WithItemHeight sets the height of every item cell.
func WithItemHeight(h int) Option {
	return func(o *options) {
		o.itemHeight = max(1, h)
	}
}

// WithHeaderHeight sets the height of group headers. Zero hides them.
func WithHeaderHeight(h int) Option {
	return func(o *options) {
		o.headerHeight = max(0, h)
	}
}

// Grid lays items out in rows of a fixed number of columns. Every group
// starts on a new row below its header. A Grid with one column is a list.
type Grid struct {
	kind         Kind
	columns      int
	itemHeight   int
	headerHeight int

	host   Host
	width  int
	height int
	count  int
	groups []groups.Group
	// tops holds the first row of every group, header included.
	tops  []int
	total int
}

// NewList returns a single column layout.
func NewList(opts ...Option) *Grid {
	g := newGrid(KindList, opts...)
	g.columns = 1
	return g
}

// NewGrid returns a multi column layout.
func NewGrid(opts ...Option) *Grid {
	return newGrid(KindGrid, opts...)
}

// New returns the layout of the given kind.
func New(kind Kind, opts ...Option) *Grid {
	if kind == KindGrid {
		return NewGrid(opts...)
	}
	return NewList(opts...)
}

func newGrid(kind Kind, opts ...Option) *Grid {
	o := options{columns: 3, itemHeight: 1, headerHeight: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return &Grid{
		kind:         kind,
		columns:      o.columns,
		itemHeight:   o.itemHeight,
		headerHeight: o.headerHeight,
	}
}

// Kind returns the layout kind.
func (g *Grid) Kind() Kind { return g.kind }

// Columns returns the number of columns.
func (g *Grid) Columns() int { return g.columns }

// Initialize binds the layout to its host and computes the geometry.
func (g *Grid) Initialize(host Host) {
	g.host = host
	g.measure()
}

// Layout recomputes the geometry for the current host state. r is the
// range the pass was asked to cover; geometry is cheap enough to compute
// for every item.
func (g *Grid) Layout(ctx context.Context, r edit.Range) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.host == nil {
		return fmt.Errorf("layout %s: not initialized", g.kind)
	}
	g.measure()
	slog.Debug("Layout pass", "kind", g.kind.String(), "range", r.String(), "total", g.total)
	return nil
}

func (g *Grid) measure() {
	if g.host == nil {
		return
	}
	g.width, g.height = g.host.ViewportSize()
	g.count = g.host.Count()
	g.groups = g.host.Groups()
	g.tops = g.tops[:0]
	row := 0
	if len(g.groups) == 0 {
		g.total = g.rowsFor(g.count) * g.itemHeight
		return
	}
	for _, grp := range g.groups {
		g.tops = append(g.tops, row)
		if grp.Count == 0 {
			continue
		}
		row += g.headerHeight + g.rowsFor(grp.Count)*g.itemHeight
	}
	g.total = row
}

func (g *Grid) rowsFor(n int) int {
	return (n + g.columns - 1) / g.columns
}

func (g *Grid) cellWidth() int {
	return max(1, g.width/g.columns)
}

// TotalHeight returns the height of the whole content.
func (g *Grid) TotalHeight() int { return g.total }

// ViewportHeight returns the height of the viewport at the last pass.
func (g *Grid) ViewportHeight() int { return g.height }

// MaxOffset returns the largest valid scroll offset.
func (g *Grid) MaxOffset() int { return max(0, g.total-g.height) }

// groupOf returns the group of item i and its start.
func (g *Grid) groupOf(i int) (gi, start, top int) {
	if len(g.groups) == 0 {
		return entity.Invalid, 0, 0
	}
	gi = sort.Search(len(g.groups), func(k int) bool { return g.groups[k].End() > i })
	if gi >= len(g.groups) {
		gi = len(g.groups) - 1
	}
	return gi, g.groups[gi].Start, g.tops[gi] + g.headerHeight
}

// RectForItem returns the cell of item i.
func (g *Grid) RectForItem(i int) (geom.Rect, error) {
	if err := entity.CheckIndex("rectForItem", i, g.count); err != nil {
		return geom.Rect{}, err
	}
	_, start, top := g.groupOf(i)
	local := i - start
	w := g.cellWidth()
	return geom.Rect{
		X: (local % g.columns) * w,
		Y: top + (local/g.columns)*g.itemHeight,
		W: w,
		H: g.itemHeight,
	}, nil
}

// RectForHeader returns the header row of group gi.
func (g *Grid) RectForHeader(gi int) (geom.Rect, error) {
	if err := entity.CheckIndex("rectForHeader", gi, len(g.groups)); err != nil {
		return geom.Rect{}, err
	}
	return geom.Rect{Y: g.tops[gi], W: g.width, H: g.headerHeight}, nil
}

// Measure returns the rect of an entity, or an empty rect if it has none.
func (g *Grid) Measure(kind entity.Kind, index int) geom.Rect {
	var (
		r   geom.Rect
		err error
	)
	if kind == entity.KindHeader {
		r, err = g.RectForHeader(index)
	} else {
		r, err = g.RectForItem(index)
	}
	if err != nil {
		return geom.Rect{}
	}
	return r
}

// ItemsFromRange returns the items whose cells intersect rows
// [top, bottom).
func (g *Grid) ItemsFromRange(top, bottom int) edit.Range {
	if g.count == 0 || bottom <= top {
		return edit.Range{}
	}
	first := sort.Search(g.count, func(i int) bool {
		r, _ := g.RectForItem(i)
		return r.Bottom() > top
	})
	end := sort.Search(g.count, func(i int) bool {
		r, _ := g.RectForItem(i)
		return r.Y >= bottom
	})
	if end <= first {
		return edit.Range{}
	}
	return edit.Range{Start: first, End: end}
}

// HeadersFromRange returns the groups whose header row intersects rows
// [top, bottom).
func (g *Grid) HeadersFromRange(top, bottom int) []int {
	if g.headerHeight == 0 {
		return nil
	}
	var out []int
	for gi, grp := range g.groups {
		if grp.Count == 0 {
			continue
		}
		y := g.tops[gi]
		if y < bottom && y+g.headerHeight > top {
			out = append(out, gi)
		}
	}
	return out
}

// OffsetFor returns the scroll offset that puts ref at the top of the
// viewport. The first item of a group scrolls its header into view too.
func (g *Grid) OffsetFor(ref entity.Ref) (int, error) {
	if ref.Kind == entity.KindHeader {
		r, err := g.RectForHeader(ref.Index)
		if err != nil {
			return 0, err
		}
		return min(r.Y, g.MaxOffset()), nil
	}
	r, err := g.RectForItem(ref.Index)
	if err != nil {
		return 0, err
	}
	y := r.Y
	if gi, start, _ := g.groupOf(ref.Index); gi >= 0 && ref.Index-start < g.columns {
		y = g.tops[gi]
	}
	return min(y, g.MaxOffset()), nil
}

// ScrollIntoView returns the smallest offset change from offset that makes
// ref fully visible.
func (g *Grid) ScrollIntoView(ref entity.Ref, offset int) (int, error) {
	r, err := g.rectFor(ref)
	if err != nil {
		return offset, err
	}
	switch {
	case r.Y < offset:
		offset = r.Y
		if ref.Kind == entity.KindItem {
			if gi, start, _ := g.groupOf(ref.Index); gi >= 0 && ref.Index-start < g.columns {
				offset = g.tops[gi]
			}
		}
	case r.Bottom() > offset+g.height:
		offset = r.Bottom() - g.height
	}
	return max(0, min(offset, g.MaxOffset())), nil
}

func (g *Grid) rectFor(ref entity.Ref) (geom.Rect, error) {
	if ref.Kind == entity.KindHeader {
		return g.RectForHeader(ref.Index)
	}
	return g.RectForItem(ref.Index)
}

// MaxFirstVisible returns the first visible item when the content is
// scrolled to the bottom.
func (g *Grid) MaxFirstVisible() int {
	if g.count == 0 {
		return entity.Invalid
	}
	limit := g.MaxOffset()
	return sort.Search(g.count, func(i int) bool {
		r, _ := g.RectForItem(i)
		return r.Y >= limit
	})
}

// PageSize returns how many items a PageUp/PageDown jump covers.
func (g *Grid) PageSize() int {
	rows := max(1, g.height/g.itemHeight-1)
	return rows * g.columns
}
