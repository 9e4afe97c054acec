package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var Log *slog.Logger

func init() {
	// safe defaults for tests; cmd/ binaries call Initialize from config
	Initialize("info", false)
}

// Initialize sets up the global logger writing to stdout.
func Initialize(level string, useJSON bool) {
	InitializeWithWriter(os.Stdout, level, useJSON)
}

// InitializeWithWriter is Initialize with an explicit destination.
func InitializeWithWriter(w io.Writer, level string, useJSON bool) {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}

	var handler slog.Handler
	if useJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// Component returns the global logger tagged with a component name.
func Component(name string) *slog.Logger {
	return Log.With("component", name)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
