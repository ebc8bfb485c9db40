package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := Console(&buf, false)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))

	slog.New(h).Info("Batch flushed", "edits", 3)
	assert.Contains(t, buf.String(), "Batch flushed")
	assert.Contains(t, buf.String(), "edits=3")

	assert.True(t, Console(&buf, true).Enabled(context.Background(), slog.LevelDebug))
}
