// Package log configures slog for the listview binary.
package log

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup sends the default logger to a rotating JSON log file. Only the first
// call has an effect.
func Setup(logFile string, debug bool) {
	initOnce.Do(func() {
		logRotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // Max size in MB
			MaxBackups: 0,
			MaxAge:     30, // Days
			Compress:   false,
		}

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}

		handler := slog.NewJSONHandler(logRotator, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})
		slog.SetDefault(slog.New(handler))
		initialized.Store(true)
	})
}

// Initialized reports whether Setup ran.
func Initialized() bool {
	return initialized.Load()
}

// Console returns a human readable handler for commands that print
// diagnostics to a terminal.
func Console(w io.Writer, debug bool) slog.Handler {
	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: false,
		Prefix:          "listview",
	})
}
