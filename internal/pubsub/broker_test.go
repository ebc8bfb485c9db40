package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker(t *testing.T) {
	t.Parallel()

	b := NewBroker[string]()
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	require.Equal(t, 1, b.GetSubscriberCount())

	b.Publish(CreatedEvent, "hello")
	select {
	case ev := <-ch:
		require.Equal(t, CreatedEvent, ev.Type)
		require.Equal(t, "hello", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	require.Eventually(t, func() bool {
		return b.GetSubscriberCount() == 0
	}, time.Second, 5*time.Millisecond)

	b.Shutdown()
	b.Shutdown()
	_, ok := <-b.Subscribe(context.Background())
	require.False(t, ok)
}
