package listview

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/listview/internal/datasource"
	"github.com/charmbracelet/listview/internal/listview/anim"
	"github.com/charmbracelet/listview/internal/listview/diff"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/charmbracelet/listview/internal/listview/realize"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	items    []string
	headers  []string
	released []uint64
	fail     map[string]error
}

func (r *fakeRenderer) RenderItem(_ context.Context, it datasource.Item, _ int) (any, error) {
	r.items = append(r.items, it.Key)
	return "item:" + it.Key + ":" + it.Text, r.fail[it.Key]
}

func (r *fakeRenderer) RenderHeader(_ context.Context, g groups.Group) (any, error) {
	r.headers = append(r.headers, g.Key)
	return "header:" + g.Key, nil
}

func (r *fakeRenderer) Release(c *realize.Container) {
	r.released = append(r.released, c.ID)
}

type harness struct {
	lv      *ListView
	src     *datasource.Memory
	r       *fakeRenderer
	events  []Event
	plans   []diff.Plan
	batches []anim.Batch
}

func newHarness(t *testing.T, src *datasource.Memory, opts ...Option) *harness {
	t.Helper()
	h := &harness{src: src, r: &fakeRenderer{}}
	exec := anim.ExecutorFunc(func(_ context.Context, b anim.Batch) error {
		h.batches = append(h.batches, b)
		return nil
	})
	hooks := Hooks{
		Plan:  func(p diff.Plan) { h.plans = append(h.plans, p) },
		Event: func(ev Event) { h.events = append(h.events, ev) },
	}
	base := []Option{WithSize(20, 5), WithOverscan(2), WithExecutor(exec), WithHooks(hooks)}
	h.lv = New(src, h.r, append(base, opts...)...)
	t.Cleanup(h.lv.Dispose)
	return h
}

// load runs Init to completion.
func (h *harness) load(t *testing.T) {
	t.Helper()
	drain(t, h.lv, h.lv.Init())
}

func (h *harness) reset() {
	h.events = nil
	h.plans = nil
	h.batches = nil
	h.r.items = nil
	h.r.headers = nil
}

func (h *harness) kinds(k EventKind) []Event {
	var out []Event
	for _, ev := range h.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

func (h *harness) loading() []LoadingState {
	var out []LoadingState
	for _, ev := range h.kinds(EventLoadingStateChanged) {
		out = append(out, ev.Loading)
	}
	return out
}

// drain runs cmd and everything it leads to, feeding every message back
// into lv.
func drain(t *testing.T, lv *ListView, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 10_000, "list view did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, lv.Update(msg))
		}
	}
}

// collect runs cmd and returns its messages without delivering them.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

func makeItems(n int) []datasource.Item {
	items := make([]datasource.Item, n)
	for i := range items {
		items[i] = datasource.Item{Key: fmt.Sprintf("k%d", i), Text: fmt.Sprintf("item %d", i)}
	}
	return items
}

func memory(t *testing.T, items []datasource.Item, opts ...datasource.MemoryOption) *datasource.Memory {
	t.Helper()
	src, err := datasource.NewMemory(items, opts...)
	require.NoError(t, err)
	return src
}

// groupedItems returns groups a, b and c with 3, 4 and 3 items.
func groupedItems() []datasource.Item {
	items := makeItems(10)
	for i := range items {
		switch {
		case i < 3:
			items[i].Group = "a"
		case i < 7:
			items[i].Group = "b"
		default:
			items[i].Group = "c"
		}
	}
	return items
}
