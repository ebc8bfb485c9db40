package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRef(t *testing.T) {
	t.Parallel()

	require.False(t, None().IsValid())
	require.True(t, Item(0).IsValid())
	require.True(t, ItemKey("k").IsValid())
	require.False(t, ItemKey("k").HasIndex())

	require.Equal(t, "item[3]", Item(3).String())
	require.Equal(t, "header[1]", Header(1).String())
	require.Equal(t, "item[k]", ItemKey("k").String())
	require.Equal(t, "item[2:k]", Ref{Kind: KindItem, Index: 2, Key: "k"}.String())
}

func TestInvalidIndex(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckIndex("op", 0, 1))
	err := CheckIndex("op", 1, 1)
	require.True(t, IsInvalidIndex(err))
	require.True(t, IsInvalidIndex(fmt.Errorf("wrapped: %w", err)))
	require.False(t, IsInvalidIndex(ErrKeyNotFound))
	require.EqualError(t, err, "op: invalid index 1 (count 1)")
}
