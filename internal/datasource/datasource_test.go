package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	depth   int
	batches [][]edit.Edit
	current []edit.Edit
}

func (r *recordingListener) BeginEdits() { r.depth++ }

func (r *recordingListener) EndEdits() {
	r.depth--
	if r.depth == 0 {
		r.batches = append(r.batches, r.current)
		r.current = nil
	}
}

func (r *recordingListener) Notify(e edit.Edit) {
	if r.depth > 0 {
		r.current = append(r.current, e)
		return
	}
	r.batches = append(r.batches, []edit.Edit{e})
}

func items(keys ...string) []Item {
	out := make([]Item, len(keys))
	for i, k := range keys {
		out[i] = Item{Key: k, Text: "item " + k}
	}
	return out
}

func TestMemoryFetch(t *testing.T) {
	t.Parallel()

	m, err := NewMemory(items("a", "b", "c", "d", "e"))
	require.NoError(t, err)
	ctx := context.Background()

	n, err := m.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	res, err := m.ItemsFromIndex(ctx, 1, 3, 1)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	require.Equal(t, 1, res.Offset)
	require.Equal(t, "b", res.Items[res.Offset].Key)
	require.Equal(t, 5, res.Total)

	res, err = m.ItemsFromKey(ctx, "e", 1, 5)
	require.NoError(t, err)
	require.Equal(t, 4, res.AbsoluteIndex)
	require.Equal(t, []Item{items("d", "e")[0], items("d", "e")[1]}, res.Items)

	_, err = m.ItemsFromKey(ctx, "zz", 0, 0)
	require.ErrorIs(t, err, entity.ErrKeyNotFound)

	_, err = m.ItemsFromIndex(ctx, 5, 0, 0)
	require.True(t, entity.IsInvalidIndex(err))
}

func TestMemoryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewMemory(items("a", "a"))
	require.ErrorIs(t, err, ErrDuplicateKey)

	m, err := NewMemory(items("a"))
	require.NoError(t, err)
	require.ErrorIs(t, m.Append(items("a")...), ErrDuplicateKey)
	require.ErrorIs(t, m.Change(0, Item{}), ErrDuplicateKey)
}

func TestMemoryNotifies(t *testing.T) {
	t.Parallel()

	m, err := NewMemory(items("a", "b", "c"))
	require.NoError(t, err)
	rec := &recordingListener{}
	unsubscribe := m.Subscribe(rec)

	require.NoError(t, m.Insert(1, items("x", "y")...))
	require.NoError(t, m.Remove(0, 1))
	require.NoError(t, m.Move(0, 3))
	require.NoError(t, m.Change(0, Item{Key: "y2", Text: "changed"}))
	require.NoError(t, m.Replace(1, 1, items("z")...))
	require.NoError(t, m.Reload(items("q")))

	require.Equal(t, [][]edit.Edit{
		{edit.InsertKeys(1, "x", "y")},
		{edit.Remove(0, 1)},
		{edit.Move(0, 3)},
		{{Op: edit.OpChange, At: 0, Key: "y2"}},
		{edit.Remove(1, 1), edit.InsertKeys(1, "z")},
		{edit.Reload()},
	}, rec.batches)

	unsubscribe()
	require.Zero(t, m.Subscribers())
	require.NoError(t, m.Append(items("r")...))
	require.Len(t, rec.batches, 6)
}

func TestMemoryGroups(t *testing.T) {
	t.Parallel()

	m, err := NewMemory([]Item{
		{Key: "1", Group: "fruit"},
		{Key: "2", Group: "fruit"},
		{Key: "3", Group: "veg"},
	}, WithGrouping())
	require.NoError(t, err)
	gs, err := m.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, gs, 2)
	require.Equal(t, "veg", gs[1].Key)
	require.Equal(t, 2, gs[1].Start)

	require.NoError(t, m.Append(Item{Key: "4", Group: "fruit"}))
	_, err = m.Groups(context.Background())
	require.Error(t, err)
}

func TestMemoryFetchGate(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m, err := NewMemory(items("a"), WithFetchGate(func(context.Context) error { return boom }))
	require.NoError(t, err)
	_, err = m.Count(context.Background())
	require.ErrorIs(t, err, boom)

	m, err = NewMemory(items("a"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.ItemsFromIndex(ctx, 0, 0, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	base := []Item{
		{Key: "1", Text: "apple"},
		{Key: "2", Text: "banana"},
		{Key: "3", Text: "apricot"},
	}
	out := Filter(base, "ap")
	require.Len(t, out, 2)
	require.Equal(t, "1", out[0].Key)
	require.Equal(t, "3", out[1].Key)
	require.Equal(t, []int{0, 1}, out[0].Matches)

	require.Len(t, Filter(base, "  "), 3)

	m, err := NewMemory(base)
	require.NoError(t, err)
	f, err := NewFiltered(m, "ban")
	require.NoError(t, err)
	require.Equal(t, 1, f.Len())
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fruit := filepath.Join(dir, "fruit.yaml")
	veg := filepath.Join(dir, "veg.json")
	require.NoError(t, os.WriteFile(fruit, []byte("- apple\n- key: b\n  text: banana\n  detail: yellow\n- apple\n"), 0o644))
	require.NoError(t, os.WriteFile(veg, []byte(`[{"text": "leek"}]`), 0o644))

	f, err := OpenFiles([]string{fruit, veg})
	require.NoError(t, err)
	require.Equal(t, 4, f.Len())

	all := f.Items()
	require.Equal(t, "fruit", all[0].Group)
	require.Equal(t, DeriveKey(fruit, "apple"), all[0].Key)
	require.Equal(t, DeriveKey(fruit, "apple")+"#1", all[2].Key)
	require.Equal(t, "b", all[1].Key)
	require.Equal(t, "yellow", all[1].Detail)
	require.Equal(t, "veg", all[3].Group)

	gs, err := f.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, gs, 2)

	rec := &recordingListener{}
	f.Subscribe(rec)
	require.NoError(t, os.WriteFile(fruit, []byte("- cherry\n"), 0o644))
	require.NoError(t, f.Refresh(fruit))
	require.Equal(t, 2, f.Len())
	require.Len(t, rec.batches, 1)
	require.Equal(t, edit.Remove(0, 3), rec.batches[0][0])
	require.Equal(t, edit.OpInsert, rec.batches[0][1].Op)

	require.Error(t, f.Refresh(filepath.Join(dir, "nope.yaml")))
	require.Equal(t, fmt.Sprint([]string{fruit, veg}), fmt.Sprint(f.Paths()))
}
