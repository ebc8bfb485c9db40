package layout

import (
	"context"
	"testing"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/geom"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	count  int
	groups []groups.Group
	w, h   int
}

func (f fakeHost) Count() int { return f.count }

func (f fakeHost) Groups() []groups.Group { return f.groups }

func (f fakeHost) ViewportSize() (int, int) { return f.w, f.h }

func grouped(counts ...int) []groups.Group {
	keys := make([]string, len(counts))
	for i := range counts {
		keys[i] = string(rune('A' + i))
	}
	return groups.FromCounts(keys, counts)
}

func TestListGeometry(t *testing.T) {
	t.Parallel()

	l := NewList(WithItemHeight(2))
	l.Initialize(fakeHost{count: 10, w: 20, h: 6})
	require.Equal(t, 20, l.TotalHeight())
	require.Equal(t, 14, l.MaxOffset())

	r, err := l.RectForItem(3)
	require.NoError(t, err)
	require.Equal(t, geom.Rect{X: 0, Y: 6, W: 20, H: 2}, r)

	_, err = l.RectForItem(10)
	require.True(t, entity.IsInvalidIndex(err))

	require.Equal(t, edit.Range{Start: 2, End: 5}, l.ItemsFromRange(5, 9))
	require.Equal(t, 7, l.MaxFirstVisible())
}

func TestGroupedGeometry(t *testing.T) {
	t.Parallel()

	l := NewList()
	l.Initialize(fakeHost{count: 5, groups: grouped(2, 3), w: 10, h: 4})
	// A header, 0, 1, B header, 2, 3, 4
	require.Equal(t, 7, l.TotalHeight())

	r, err := l.RectForItem(2)
	require.NoError(t, err)
	require.Equal(t, 4, r.Y)

	h, err := l.RectForHeader(1)
	require.NoError(t, err)
	require.Equal(t, geom.Rect{Y: 3, W: 10, H: 1}, h)

	require.Equal(t, []int{1}, l.HeadersFromRange(2, 4))

	off, err := l.OffsetFor(entity.Item(2))
	require.NoError(t, err)
	require.Equal(t, 3, off)
}

func TestGridGeometry(t *testing.T) {
	t.Parallel()

	g := NewGrid(WithColumns(3), WithHeaderHeight(0))
	g.Initialize(fakeHost{count: 7, w: 30, h: 2})
	require.Equal(t, 3, g.TotalHeight())

	r, err := g.RectForItem(4)
	require.NoError(t, err)
	require.Equal(t, geom.Rect{X: 10, Y: 1, W: 10, H: 1}, r)
	require.Equal(t, edit.Range{Start: 3, End: 7}, g.ItemsFromRange(1, 3))
	require.Empty(t, g.HeadersFromRange(0, 3))
}

func TestLayoutCanceled(t *testing.T) {
	t.Parallel()

	l := NewList()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, l.Layout(ctx, edit.Range{}), context.Canceled)
	require.Error(t, l.Layout(context.Background(), edit.Range{}))

	l.Initialize(fakeHost{count: 1, w: 1, h: 1})
	require.NoError(t, l.Layout(context.Background(), edit.Span(0, 1)))
}

func TestScrollIntoView(t *testing.T) {
	t.Parallel()

	l := NewList()
	l.Initialize(fakeHost{count: 20, w: 10, h: 5})

	off, err := l.ScrollIntoView(entity.Item(7), 0)
	require.NoError(t, err)
	require.Equal(t, 3, off)

	off, err = l.ScrollIntoView(entity.Item(4), 3)
	require.NoError(t, err)
	require.Equal(t, 3, off)

	off, err = l.ScrollIntoView(entity.Item(1), 3)
	require.NoError(t, err)
	require.Equal(t, 1, off)
}

func TestNavigate(t *testing.T) {
	t.Parallel()

	nav := func(t *testing.T, g *Grid, from int, dir entity.Direction) int {
		t.Helper()
		ref, err := g.Navigate(entity.Item(from), dir)
		require.NoError(t, err)
		return ref.Index
	}

	t.Run("list", func(t *testing.T) {
		t.Parallel()
		l := NewList()
		l.Initialize(fakeHost{count: 10, w: 10, h: 4})
		require.Equal(t, 1, nav(t, l, 0, entity.DirDown))
		require.Equal(t, 0, nav(t, l, 0, entity.DirUp))
		require.Equal(t, 9, nav(t, l, 3, entity.DirEnd))
		require.Equal(t, 0, nav(t, l, 3, entity.DirHome))
		require.Equal(t, 6, nav(t, l, 3, entity.DirPageDown))
		require.Equal(t, 4, nav(t, l, 3, entity.DirRight))
	})

	t.Run("grid", func(t *testing.T) {
		t.Parallel()
		g := NewGrid(WithColumns(3), WithHeaderHeight(0))
		g.Initialize(fakeHost{count: 7, w: 30, h: 3})
		require.Equal(t, 4, nav(t, g, 1, entity.DirDown))
		require.Equal(t, 6, nav(t, g, 4, entity.DirDown))
		require.Equal(t, 6, nav(t, g, 6, entity.DirDown))
		require.Equal(t, 2, nav(t, g, 2, entity.DirRight))
		require.Equal(t, 3, nav(t, g, 3, entity.DirLeft))
		require.Equal(t, 5, nav(t, g, 4, entity.DirRight))
	})

	t.Run("grouped grid crosses groups", func(t *testing.T) {
		t.Parallel()
		g := NewGrid(WithColumns(3))
		g.Initialize(fakeHost{count: 9, groups: grouped(4, 5), w: 30, h: 10})
		// Group A: 0 1 2 / 3. Group B: 4 5 6 / 7 8.
		require.Equal(t, 3, nav(t, g, 1, entity.DirDown))
		require.Equal(t, 4, nav(t, g, 3, entity.DirDown))
		require.Equal(t, 3, nav(t, g, 5, entity.DirUp))
		require.Equal(t, 3, nav(t, g, 6, entity.DirUp))
		require.Equal(t, 3, nav(t, g, 3, entity.DirRight))
	})

	t.Run("headers", func(t *testing.T) {
		t.Parallel()
		l := NewList()
		l.Initialize(fakeHost{count: 4, groups: grouped(2, 0, 2), w: 10, h: 10})
		ref, err := l.Navigate(entity.Header(0), entity.DirDown)
		require.NoError(t, err)
		require.Equal(t, 2, ref.Index)
		require.Equal(t, "C", ref.Key)
		ref, err = l.Navigate(entity.Header(2), entity.DirHome)
		require.NoError(t, err)
		require.Equal(t, 0, ref.Index)
	})
}
