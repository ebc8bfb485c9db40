package listview

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/listview/internal/datasource"
	"github.com/charmbracelet/listview/internal/listview/anim"
	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/groups"
)

// Every message carries the generation it was issued in.

type countMsg struct {
	gen    uint64
	count  int
	groups []groups.Group
	err    error
}

type itemsMsg struct {
	gen    uint64
	ticket uint64
	r      edit.Range
	result datasource.Result
	err    error
}

type renderMsg struct {
	gen     uint64
	seq     uint64
	key     string
	element any
	err     error
}

type headerMsg struct {
	gen     uint64
	seq     uint64
	key     string
	element any
	err     error
}

type layoutMsg struct {
	gen  uint64
	pass uint64
	r    edit.Range
}

type animDoneMsg struct {
	gen   uint64
	batch uint64
	kind  anim.Kind
	err   error
}

type focusKeyMsg struct {
	gen    uint64
	key    string
	result datasource.Result
	err    error
}

func (lv *ListView) fetchCount() tea.Cmd {
	ctx, gen, src := lv.ctx, lv.gen, lv.source
	if src == nil {
		return func() tea.Msg {
			return countMsg{gen: gen}
		}
	}
	return func() tea.Msg {
		n, err := src.Count(ctx)
		if err != nil {
			return countMsg{gen: gen, err: fmt.Errorf("count: %w", err)}
		}
		var gs []groups.Group
		if g, ok := src.(datasource.Grouped); ok {
			gs, err = g.Groups(ctx)
			if err != nil {
				return countMsg{gen: gen, err: fmt.Errorf("groups: %w", err)}
			}
		}
		return countMsg{gen: gen, count: n, groups: gs}
	}
}

func (lv *ListView) fetchItems(ticket uint64, r edit.Range) tea.Cmd {
	ctx, gen, src := lv.ctx, lv.gen, lv.source
	return func() tea.Msg {
		if r.Empty() || src == nil {
			return itemsMsg{gen: gen, ticket: ticket, r: r}
		}
		res, err := src.ItemsFromIndex(ctx, r.Start, 0, r.Len()-1)
		if err != nil {
			err = fmt.Errorf("items %s: %w", r, err)
		}
		return itemsMsg{gen: gen, ticket: ticket, r: r, result: res, err: err}
	}
}

func (lv *ListView) fetchKey(key string) tea.Cmd {
	ctx, gen, src := lv.ctx, lv.gen, lv.source
	return func() tea.Msg {
		res, err := src.ItemsFromKey(ctx, key, 0, 0)
		return focusKeyMsg{gen: gen, key: key, result: res, err: err}
	}
}

func (lv *ListView) renderItem(index int, item datasource.Item) tea.Cmd {
	lv.nextRender++
	seq := lv.nextRender
	lv.renderSeq[item.Key] = seq
	ctx, gen, r := lv.ctx, lv.gen, lv.renderer
	return func() tea.Msg {
		el, err := r.RenderItem(ctx, item, index)
		return renderMsg{gen: gen, seq: seq, key: item.Key, element: el, err: err}
	}
}

func (lv *ListView) renderHeader(g groups.Group) tea.Cmd {
	lv.nextRender++
	seq := lv.nextRender
	lv.headerPending[g.Key] = seq
	ctx, gen, r := lv.ctx, lv.gen, lv.renderer
	return func() tea.Msg {
		el, err := r.RenderHeader(ctx, g)
		return headerMsg{gen: gen, seq: seq, key: g.Key, element: el, err: err}
	}
}

// layoutPass hops through the runtime so that edits arriving meanwhile are
// folded into the same pass. The layout itself runs in Update.
func (lv *ListView) layoutPass(r edit.Range) tea.Cmd {
	lv.pass++
	gen, pass := lv.gen, lv.pass
	return func() tea.Msg {
		return layoutMsg{gen: gen, pass: pass, r: r}
	}
}

func (lv *ListView) runBatch(b anim.Batch) tea.Cmd {
	ctx, gen, exec := lv.ctx, lv.gen, lv.executor
	return func() tea.Msg {
		err := exec.Execute(ctx, b)
		return animDoneMsg{gen: gen, batch: b.ID, kind: b.Kind, err: err}
	}
}
