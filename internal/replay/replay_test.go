package replay

import (
	"testing"

	"github.com/charmbracelet/listview/internal/listview/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = `
height: 5
items:
  - {key: a, text: alpha}
  - {key: b, text: bravo}
  - {key: c, text: charlie}
  - {key: d, text: delta}
  - {key: e, text: echo}
  - {key: f, text: foxtrot}
steps:
  - select: [1, 2]
  - remove: {at: 0, count: 1}
  - insert: {at: 0, items: [{key: z, text: zulu}]}
  - change: {at: 1, text: BRAVO}
  - key: hyper+down
  - ensure_visible: -7
`

func TestRun(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(script))
	require.NoError(t, err)
	assert.Equal(t, 40, s.Width)
	require.Len(t, s.Steps, 6)

	report, err := Run(t.Context(), s)
	require.NoError(t, err)
	require.Len(t, report.Steps, 7)

	load := report.Steps[0]
	assert.Equal(t, "load", load.Step)
	assert.Equal(t, 6, load.Count)
	assert.Empty(t, load.Error)

	sel := report.Steps[1]
	assert.Equal(t, "select [1 2]", sel.Step)
	assert.Equal(t, []int{1, 2}, sel.Selected)

	removed := report.Steps[2]
	assert.Equal(t, 5, removed.Count)
	assert.Equal(t, []int{0, 1}, removed.Selected)
	exits := 0
	for _, p := range removed.Plans {
		exits += p.Exit
	}
	assert.Equal(t, 1, exits)

	inserted := report.Steps[3]
	assert.Equal(t, 6, inserted.Count)
	assert.Equal(t, []int{1, 2}, inserted.Selected)
	enters := 0
	for _, p := range inserted.Plans {
		enters += p.Enter
	}
	assert.Equal(t, 1, enters)

	changed := report.Steps[4]
	assert.Equal(t, 6, changed.Count)
	reflows := 0
	for _, p := range changed.Plans {
		reflows += p.Reflow
	}
	assert.Equal(t, 1, reflows)

	assert.Contains(t, report.Steps[5].Error, "unknown modifier")
	assert.NotEmpty(t, report.Steps[6].Error)
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want selection.KeyPress
		err  bool
	}{
		{in: "down", want: selection.KeyPress{Key: selection.KeyDown}},
		{in: "Shift+Up", want: selection.KeyPress{Key: selection.KeyUp, Shift: true}},
		{in: "ctrl+a", want: selection.KeyPress{Key: selection.KeySelectAll, Ctrl: true}},
		{in: "ctrl+space", want: selection.KeyPress{Key: selection.KeySpace, Ctrl: true}},
		{in: "a", err: true},
		{in: "f5", err: true},
		{in: "meta+down", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseKey(tt.in)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 40, s.Width)
	assert.Equal(t, 10, s.Height)
	assert.Equal(t, 2, s.Overscan)

	_, err = Parse([]byte("items: 3"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	s, err := Load("testdata/grouped.yaml")
	require.NoError(t, err)
	assert.True(t, s.Grouped)
	require.Len(t, s.Steps, 5)
	assert.Equal(t, "insert 1 at 2", s.Steps[0].Name())
	assert.Equal(t, "key shift+up", s.Steps[2].Name())
	assert.Equal(t, "reload 2", s.Steps[4].Name())

	report, err := Run(t.Context(), s)
	require.NoError(t, err)
	require.Len(t, report.Steps, 6)
	for _, step := range report.Steps {
		assert.Empty(t, step.Error, step.Step)
	}
	assert.Equal(t, 6, report.Steps[1].Count)
	assert.Len(t, report.Steps[3].Selected, 2)

	reload := report.Steps[5]
	assert.Equal(t, 2, reload.Count)
	assert.Empty(t, reload.Selected)

	_, err = Load("testdata/missing.yaml")
	require.Error(t, err)
}
