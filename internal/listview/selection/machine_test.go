package selection

import (
	"testing"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/stretchr/testify/require"
)

func newMachine(cfg Config, host *fakeHost) (*Machine, *recorder) {
	rec := &recorder{}
	m := New(cfg, host, rec)
	return m, rec
}

func click(i int) Pointer { return Pointer{Ref: entity.Item(i)} }

func TestMachinePointer(t *testing.T) {
	t.Parallel()

	t.Run("direct select replaces and invokes", func(t *testing.T) {
		t.Parallel()
		m, rec := newMachine(Config{Mode: ModeMulti, Tap: TapDirectSelect}, newHost(10))
		m.Pointer(click(2))
		m.Pointer(click(5))
		require.Equal(t, []int{5}, m.Selected())
		require.Equal(t, 5, m.Pivot())
		require.Len(t, rec.invoked, 2)
		require.Equal(t, "k5", m.Focused().Key)
	})

	t.Run("shift extends from pivot", func(t *testing.T) {
		t.Parallel()
		m, _ := newMachine(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, newHost(10))
		m.Pointer(Pointer{Ref: entity.Item(2), Ctrl: true})
		m.Pointer(Pointer{Ref: entity.Item(5), Shift: true})
		require.Equal(t, []int{2, 3, 4, 5}, m.Selected())
		require.Equal(t, 2, m.Pivot())

		m.Pointer(Pointer{Ref: entity.Item(0), Shift: true})
		require.Equal(t, []int{0, 1, 2}, m.Selected())
	})

	t.Run("shift with toggle select is additive", func(t *testing.T) {
		t.Parallel()
		m, _ := newMachine(Config{Mode: ModeMulti, Tap: TapToggleSelect}, newHost(10))
		m.Pointer(click(8))
		m.Pointer(click(2))
		m.Pointer(Pointer{Ref: entity.Item(4), Shift: true})
		require.Equal(t, []int{2, 3, 4, 8}, m.Selected())
	})

	t.Run("ctrl toggles in single mode", func(t *testing.T) {
		t.Parallel()
		m, _ := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, newHost(10))
		m.Pointer(Pointer{Ref: entity.Item(3), Ctrl: true})
		m.Pointer(Pointer{Ref: entity.Item(4), Ctrl: true})
		require.Equal(t, []int{4}, m.Selected())
		m.Pointer(Pointer{Ref: entity.Item(4), Ctrl: true})
		require.Empty(t, m.Selected())
	})

	t.Run("canceled change keeps selection", func(t *testing.T) {
		t.Parallel()
		m, rec := newMachine(Config{Mode: ModeSingle, Tap: TapDirectSelect}, newHost(10))
		m.Pointer(click(1))
		rec.preventChange = true
		m.Pointer(click(2))
		require.Equal(t, []int{1}, m.Selected())
		require.Equal(t, 1, m.Pivot())
		require.Len(t, rec.changed, 1)
	})

	t.Run("header click restores remembered focus", func(t *testing.T) {
		t.Parallel()
		host := newHost(9, 3, 3, 3)
		m, rec := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, host)
		m.Pointer(click(4))
		m.Pointer(click(0))
		m.Pointer(Pointer{Ref: entity.Header(1)})
		require.Equal(t, []entity.Ref{entity.Header(1)}, rec.headers)
		require.Equal(t, 4, m.Focused().Index)
	})

	t.Run("prevented header keeps focus", func(t *testing.T) {
		t.Parallel()
		host := newHost(9, 3, 3, 3)
		m, rec := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, host)
		rec.preventHeader = true
		m.Pointer(click(0))
		m.Pointer(Pointer{Ref: entity.Header(2)})
		require.Equal(t, 0, m.Focused().Index)
	})

	t.Run("out of range ignored", func(t *testing.T) {
		t.Parallel()
		m, rec := newMachine(Config{Mode: ModeMulti, Tap: TapDirectSelect}, newHost(3))
		d := m.Pointer(click(7))
		require.Equal(t, ActionIgnore, d.Action)
		require.Empty(t, rec.invoked)
	})
}

func TestMachineKeyboard(t *testing.T) {
	t.Parallel()

	t.Run("arrows move focus and pivot", func(t *testing.T) {
		t.Parallel()
		host := newHost(10)
		m, rec := newMachine(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, host)
		require.NoError(t, m.SetFocus(entity.Item(0)))
		require.True(t, m.Key(KeyPress{Key: KeyDown}))
		require.True(t, m.Key(KeyPress{Key: KeyDown}))
		require.Equal(t, 2, m.Focused().Index)
		require.Equal(t, 2, m.Pivot())
		require.Equal(t, 2, rec.navigating)
		require.Len(t, host.visible, 2)
		require.Empty(t, m.Selected())
	})

	t.Run("shift arrows replace range in invoke only", func(t *testing.T) {
		t.Parallel()
		m, _ := newMachine(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, newHost(10))
		require.NoError(t, m.SetFocus(entity.Item(3)))
		m.Key(KeyPress{Key: KeyDown, Shift: true})
		m.Key(KeyPress{Key: KeyDown, Shift: true})
		require.Equal(t, []int{3, 4, 5}, m.Selected())
		m.Key(KeyPress{Key: KeyUp, Shift: true})
		require.Equal(t, []int{3, 4}, m.Selected())
	})

	t.Run("prevented navigation keeps focus", func(t *testing.T) {
		t.Parallel()
		m, rec := newMachine(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, newHost(10))
		require.NoError(t, m.SetFocus(entity.Item(3)))
		rec.preventNav = true
		m.Key(KeyPress{Key: KeyEnd})
		require.Equal(t, 3, m.Focused().Index)
	})

	t.Run("space toggles and enter invokes", func(t *testing.T) {
		t.Parallel()
		m, rec := newMachine(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, newHost(10))
		require.NoError(t, m.SetFocus(entity.Item(6)))
		require.True(t, m.Key(KeyPress{Key: KeySpace}))
		require.Equal(t, []int{6}, m.Selected())
		require.True(t, m.Key(KeyPress{Key: KeyEnter}))
		require.Len(t, rec.invoked, 1)
		require.Equal(t, 6, rec.invoked[0].Index)
	})

	t.Run("escape clears unless canceled", func(t *testing.T) {
		t.Parallel()
		m, rec := newMachine(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, newHost(10))
		require.NoError(t, m.SetFocus(entity.Item(1)))
		m.Key(KeyPress{Key: KeySpace})
		rec.preventChange = true
		m.Key(KeyPress{Key: KeyEscape})
		require.Equal(t, []int{1}, m.Selected())
		require.Equal(t, 1, m.Pivot())
		rec.preventChange = false
		m.Key(KeyPress{Key: KeyEscape})
		require.Empty(t, m.Selected())
		require.Equal(t, entity.Invalid, m.Pivot())
	})

	t.Run("select all needs multi", func(t *testing.T) {
		t.Parallel()
		m, _ := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, newHost(4))
		require.False(t, m.Key(KeyPress{Key: KeySelectAll, Ctrl: true}))
		m.SetConfig(Config{Mode: ModeMulti, Tap: TapInvokeOnly})
		require.True(t, m.Key(KeyPress{Key: KeySelectAll, Ctrl: true}))
		require.Equal(t, []int{0, 1, 2, 3}, m.Selected())
	})

	t.Run("tab switches tracks", func(t *testing.T) {
		t.Parallel()
		host := newHost(6, 2, 4)
		m, _ := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, host)
		require.NoError(t, m.SetFocus(entity.Item(3)))
		require.True(t, m.Key(KeyPress{Key: KeyTab}))
		require.Equal(t, entity.KindHeader, m.Focused().Kind)
		require.Equal(t, 1, m.Focused().Index)
		require.True(t, m.Key(KeyPress{Key: KeyTab, Shift: true}))
		require.Equal(t, entity.KindItem, m.Focused().Kind)
		require.Equal(t, 3, m.Focused().Index)
		require.False(t, m.Key(KeyPress{Key: KeyTab, Shift: true}))
	})

	t.Run("tab on ungrouped list is not consumed", func(t *testing.T) {
		t.Parallel()
		m, _ := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, newHost(6))
		require.NoError(t, m.SetFocus(entity.Item(0)))
		require.False(t, m.Key(KeyPress{Key: KeyTab}))
	})

	t.Run("removed remembered item falls back to group start", func(t *testing.T) {
		t.Parallel()
		host := newHost(6, 2, 4)
		m, _ := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, host)
		require.NoError(t, m.SetFocus(entity.Item(4)))
		m.Key(KeyPress{Key: KeyTab})
		require.NoError(t, host.keys.Apply(edit.Remove(4, 1)))
		m.Key(KeyPress{Key: KeyTab, Shift: true})
		require.Equal(t, 2, m.Focused().Index)
	})

	t.Run("remembered item survives trimming and follows inserts", func(t *testing.T) {
		t.Parallel()
		host := newHost(10, 5, 5)
		m, _ := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, host)
		require.NoError(t, m.SetFocus(entity.Item(7)))
		require.True(t, m.Key(KeyPress{Key: KeyTab}))
		require.Equal(t, entity.KindHeader, m.Focused().Kind)

		host.keys.Trim(edit.Span(0, 2))
		require.NoError(t, host.keys.Apply(edit.Insert(6, 1)))
		host.count = 11
		host.groups = []int{5, 6}

		require.True(t, m.Key(KeyPress{Key: KeyTab, Shift: true}))
		require.Equal(t, 8, m.Focused().Index)
		require.Equal(t, "k7", m.Focused().Key)
	})

	t.Run("focused header of a vanished group moves to its neighbor", func(t *testing.T) {
		t.Parallel()
		host := newHost(9, 3, 3, 3)
		m, rec := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, host)
		require.NoError(t, m.SetFocus(entity.Item(7)))
		require.True(t, m.Key(KeyPress{Key: KeyTab}))
		require.Equal(t, entity.KindHeader, m.Focused().Kind)
		require.Equal(t, "g2", m.Focused().Key)

		host.count, host.groups = 6, []int{3, 3}
		require.NoError(t, host.keys.Apply(edit.Remove(6, 3)))
		m.Regroup()
		require.Equal(t, entity.KindItem, m.Focused().Kind)
		require.Equal(t, 3, m.Focused().Index)
		require.Equal(t, m.Focused(), rec.focus[len(rec.focus)-1])
	})

	t.Run("reset releases remembered items", func(t *testing.T) {
		t.Parallel()
		host := newHost(6, 3, 3)
		m, _ := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, host)
		require.NoError(t, m.SetFocus(entity.Item(4)))
		m.Reset()
		host.keys.Trim(edit.Span(0, 1))
		require.Equal(t, 1, host.keys.Known())
	})
}

func TestMachineConfig(t *testing.T) {
	t.Parallel()

	m, rec := newMachine(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, newHost(10))
	_, err := m.SetSelection([]int{7, 2, 4})
	require.NoError(t, err)
	require.Equal(t, []int{2, 4, 7}, m.Selected())

	m.SetConfig(Config{Mode: ModeSingle, Tap: TapInvokeOnly})
	require.Equal(t, []int{2}, m.Selected())

	m.SetConfig(Config{Mode: ModeNone, Tap: TapInvokeOnly})
	require.Empty(t, m.Selected())
	require.Len(t, rec.changed, 3)

	ok, err := m.SetSelection([]int{1})
	require.NoError(t, err)
	require.False(t, ok)

	_, err = m.SetSelection([]int{42})
	require.True(t, entity.IsInvalidIndex(err))
}

func TestMachineApply(t *testing.T) {
	t.Parallel()

	t.Run("insert shifts selection and focus", func(t *testing.T) {
		t.Parallel()
		host := newHost(10)
		m, _ := newMachine(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, host)
		_, err := m.SetSelection([]int{1, 5})
		require.NoError(t, err)
		require.NoError(t, m.SetFocus(entity.Item(5)))
		m.SetPivot(5)

		host.count = 12
		m.Apply(edit.Insert(3, 2), 12)
		require.Equal(t, []int{1, 7}, m.Selected())
		require.Equal(t, 7, m.Focused().Index)
		require.Equal(t, 7, m.Pivot())
	})

	t.Run("remove drops pivot and moves focus", func(t *testing.T) {
		t.Parallel()
		host := newHost(10)
		m, rec := newMachine(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, host)
		_, err := m.SetSelection([]int{4, 8})
		require.NoError(t, err)
		require.NoError(t, m.SetFocus(entity.Item(4)))
		m.SetPivot(4)

		host.count = 8
		m.Apply(edit.Remove(3, 2), 8)
		require.Equal(t, []int{6}, m.Selected())
		require.Equal(t, entity.Invalid, m.Pivot())
		require.Equal(t, 3, m.Focused().Index)
		require.Equal(t, []int{6}, rec.changed[len(rec.changed)-1])
	})

	t.Run("removing the tail clamps focus", func(t *testing.T) {
		t.Parallel()
		host := newHost(5)
		m, _ := newMachine(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, host)
		require.NoError(t, m.SetFocus(entity.Item(4)))
		host.count = 3
		m.Apply(edit.Remove(3, 2), 3)
		require.Equal(t, 2, m.Focused().Index)
	})

	t.Run("reload resets", func(t *testing.T) {
		t.Parallel()
		host := newHost(5)
		m, _ := newMachine(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, host)
		_, err := m.SetSelection([]int{1, 2})
		require.NoError(t, err)
		require.NoError(t, m.SetFocus(entity.Item(3)))
		m.Apply(edit.Reload(), 5)
		require.Empty(t, m.Selected())
		require.Equal(t, 0, m.Focused().Index)
		require.Equal(t, entity.Invalid, m.Pivot())
	})
}
