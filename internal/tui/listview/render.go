package listview

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/listview/internal/datasource"
	core "github.com/charmbracelet/listview/internal/listview"
	"github.com/charmbracelet/listview/internal/listview/diff"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/geom"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/rivo/uniseg"
)

const ellipsis = "…"

type itemElement struct {
	key     string
	text    string
	detail  string
	matches []int
}

type headerElement struct {
	key   string
	title string
}

// renderer prepares elements off the UI goroutine. Styling that depends on
// focus or selection happens when the view is drawn.
type renderer struct{}

var _ core.Renderer = renderer{}

func (renderer) RenderItem(ctx context.Context, it datasource.Item, _ int) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return itemElement{
		key:     it.Key,
		text:    singleLine(it.Text),
		detail:  singleLine(it.Detail),
		matches: it.Matches,
	}, nil
}

func (renderer) RenderHeader(ctx context.Context, g groups.Group) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := g.Key
	if s, ok := g.Header.(string); ok && s != "" {
		name = s
	}
	return headerElement{key: g.Key, title: fmt.Sprintf("%s (%d)", singleLine(name), g.Count)}, nil
}

func singleLine(s string) string {
	s, _, _ = strings.Cut(s, "\n")
	return strings.TrimRight(s, "\r")
}

// cell is a span of one terminal row.
type cell struct {
	x, w int
	text string
}

// canvas collects the visible spans of the list, one slice per row.
type canvas struct {
	top  int
	rows [][]cell
}

func newCanvas(top, height int) *canvas {
	return &canvas{top: top, rows: make([][]cell, height)}
}

// place puts lines into the rows covered by r. Rows outside the viewport are
// clipped.
func (c *canvas) place(r geom.Rect, lines []string) {
	for k := range r.H {
		y := r.Y + k - c.top
		if y < 0 || y >= len(c.rows) {
			continue
		}
		var line string
		if k < len(lines) {
			line = lines[k]
		}
		c.rows[y] = append(c.rows[y], cell{x: r.X, w: r.W, text: line})
	}
}

func (c *canvas) render(width int) string {
	lines := make([]string, len(c.rows))
	for y, row := range c.rows {
		slices.SortFunc(row, func(a, b cell) int { return cmp.Compare(a.x, b.x) })
		var b strings.Builder
		col := 0
		for _, s := range row {
			if s.x > col {
				b.WriteString(strings.Repeat(" ", s.x-col))
				col = s.x
			}
			w := min(s.w, width-col)
			if w <= 0 {
				break
			}
			text := ansi.Truncate(s.text, w, ellipsis)
			b.WriteString(text)
			if pad := w - ansi.StringWidth(text); pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
			}
			col += w
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

// drawList renders the rows of the viewport.
func (m *Model) drawList() string {
	height := m.listHeight()
	if height <= 0 || m.width <= 0 {
		return ""
	}
	top := m.lv.ScrollPosition()
	c := newCanvas(top, height)
	if m.lv.Count() == 0 {
		c.place(geom.Rect{Y: top, W: m.width, H: 1}, []string{m.styles.Placeholder.Render(m.emptyText())})
		return c.render(m.width)
	}

	lay := m.lv.Layout()
	gs := m.lv.Groups()
	for _, gi := range lay.HeadersFromRange(top, top+height) {
		if gi < 0 || gi >= len(gs) {
			continue
		}
		r := lay.Measure(entity.KindHeader, gi)
		c.place(r, m.headerLines(gi, gs[gi], r.W))
	}
	vis := lay.ItemsFromRange(top, top+height)
	for i := vis.Start; i < vis.End; i++ {
		r := lay.Measure(entity.KindItem, i)
		c.place(r, m.itemLines(i, r))
	}
	return c.render(m.width)
}

func (m *Model) emptyText() string {
	switch {
	case m.lv.Loading() < core.ViewportLoaded:
		return "Loading…"
	case m.query != "":
		return fmt.Sprintf("Nothing matches %q", m.query)
	default:
		return "No items"
	}
}

func (m *Model) headerLines(gi int, g groups.Group, width int) []string {
	focused := m.lv.CurrentItem()
	style := m.styles.Header
	if focused.Kind == entity.KindHeader && focused.Index == gi {
		style = m.styles.HeaderFocused
	}
	title := g.Key
	if c, ok := m.lv.Header(g.Key); ok {
		if el, ok := c.Element.(headerElement); ok {
			title = el.title
		}
	}
	title = m.indent(entity.KindHeader, g.Key) + title
	return []string{style.Render(ansi.Truncate(title, max(0, width), ellipsis))}
}

func (m *Model) itemLines(i int, r geom.Rect) []string {
	el, ok := m.lv.ElementFromIndex(i)
	item, isItem := el.(itemElement)
	if !ok || !isItem {
		return []string{m.styles.Placeholder.Render(ellipsis)}
	}

	style := m.styles.Item
	focused := m.lv.CurrentItem()
	selected := m.lv.IsSelected(i)
	switch {
	case focused.Kind == entity.KindItem && focused.Index == i:
		style = m.styles.Focused
	case selected:
		style = m.styles.Selected
	}
	if d, ok := m.exec.Displacement(entity.KindItem, item.key); ok && d.Role == diff.RoleReflow && d.Strength > 0 {
		style = style.Inherit(m.styles.Changed)
	}

	mark := "  "
	if selected {
		mark = "✓ "
	}
	// Padding and the selection mark take three cells.
	avail := max(0, r.W-3-uniseg.StringWidth(m.indent(entity.KindItem, item.key)))
	text := item.text
	if len(item.matches) > 0 {
		text = lipgloss.StyleRunes(text, item.matches, m.styles.Match, lipgloss.NewStyle())
	}
	text = ansi.Truncate(text, avail, ellipsis)
	lines := []string{style.Width(r.W).Render(m.indent(entity.KindItem, item.key) + mark + text)}
	if r.H > 1 && item.detail != "" {
		lines = append(lines, m.styles.Detail.Render("  "+ansi.Truncate(item.detail, max(0, r.W-3), ellipsis)))
	}
	return lines
}

func (m *Model) indent(kind entity.Kind, key string) string {
	d, ok := m.exec.Displacement(kind, key)
	if !ok || d.Indent <= 0 {
		return ""
	}
	return strings.Repeat(" ", d.Indent)
}
