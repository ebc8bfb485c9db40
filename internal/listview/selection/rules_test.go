package selection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	type press struct {
		shift, ctrl bool
	}
	tests := []struct {
		mode   Mode
		tap    TapBehavior
		press  press
		action Action
		invoke bool
	}{
		{ModeNone, TapNone, press{}, ActionIgnore, false},
		{ModeNone, TapInvokeOnly, press{}, ActionInvoke, true},
		{ModeNone, TapDirectSelect, press{shift: true}, ActionInvoke, true},
		{ModeSingle, TapInvokeOnly, press{}, ActionInvoke, true},
		{ModeSingle, TapDirectSelect, press{}, ActionSelect, true},
		{ModeSingle, TapToggleSelect, press{}, ActionToggle, true},
		{ModeSingle, TapNone, press{}, ActionIgnore, false},
		{ModeSingle, TapInvokeOnly, press{shift: true}, ActionSelect, false},
		{ModeSingle, TapInvokeOnly, press{ctrl: true}, ActionToggle, false},
		{ModeMulti, TapInvokeOnly, press{shift: true}, ActionRangeSelect, false},
		{ModeMulti, TapDirectSelect, press{shift: true, ctrl: true}, ActionRangeSelect, false},
		{ModeMulti, TapDirectSelect, press{ctrl: true}, ActionToggle, false},
		{ModeMulti, TapToggleSelect, press{}, ActionToggle, true},
	}
	for _, tt := range tests {
		name := tt.mode.String() + "/" + tt.tap.String()
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			d := Decide(Config{Mode: tt.mode, Tap: tt.tap}, ButtonPrimary, tt.press.shift, tt.press.ctrl)
			require.Equal(t, tt.action, d.Action)
			require.Equal(t, tt.invoke, d.Invoke)
			require.Equal(t, tt.action != ActionIgnore, d.Pressed)
		})
	}
}

func TestDecideAdditiveRange(t *testing.T) {
	t.Parallel()

	d := Decide(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, ButtonPrimary, true, false)
	require.False(t, d.Additive)

	d = Decide(Config{Mode: ModeMulti, Tap: TapInvokeOnly}, ButtonPrimary, true, true)
	require.True(t, d.Additive)

	d = Decide(Config{Mode: ModeMulti, Tap: TapDirectSelect}, ButtonPrimary, true, false)
	require.True(t, d.Additive)
}

func TestDecideSecondaryButton(t *testing.T) {
	t.Parallel()

	d := Decide(Config{Mode: ModeSingle, Tap: TapInvokeOnly}, ButtonSecondary, false, false)
	require.Equal(t, ActionContextMenu, d.Action)
	require.False(t, d.Invoke)
	require.False(t, d.Pressed)

	d = Decide(Config{Mode: ModeMulti, Tap: TapDirectSelect}, ButtonSecondary, false, true)
	require.Equal(t, ActionToggle, d.Action)
	require.False(t, d.Invoke)
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, m := range []Mode{ModeNone, ModeSingle, ModeMulti} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	_, err := ParseMode("bogus")
	require.Error(t, err)
}
