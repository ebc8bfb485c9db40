package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRect(t *testing.T) {
	t.Parallel()

	r := Rect{X: 1, Y: 2, W: 3, H: 4}
	require.Equal(t, 6, r.Bottom())
	require.Equal(t, 4, r.Right())
	require.Equal(t, Rect{X: 2, Y: 0, W: 3, H: 4}, r.Offset(1, -2))
	require.True(t, r.Intersects(Rect{X: 3, Y: 5, W: 1, H: 1}))
	require.False(t, r.Intersects(Rect{X: 4, Y: 2, W: 1, H: 1}))
	require.False(t, r.Intersects(Rect{}))
	require.True(t, r.SameSize(Rect{W: 3, H: 4}))
	require.True(t, Rect{W: 3}.Empty())
	require.Equal(t, "(1,2 3x4)", r.String())
}
