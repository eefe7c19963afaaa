// Package logging configures the process-wide slog logger for merit.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the merit logger at the requested level, installs it as the
// slog default, and returns it. Every component logger in the server derives
// from this one via With.
func Setup(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger := slog.New(handler).With("service", "merit")
	slog.SetDefault(logger)
	return logger
}

// parseLevel accepts debug, info, warn and error case-insensitively and
// falls back to info for anything else.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
