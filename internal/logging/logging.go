// Package logging configures the process-wide slog default. The viewer
// loop and the signaling pumps all log through slog; only errors reach
// stderr by default so log lines do not fight the live status view for
// the terminal.
package logging

import (
	"log/slog"
	"os"
)

// Init installs a text handler on stderr at the level selected by the
// LOG_LEVEL environment variable.
func Init() {
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: levelFromEnv(),
		}),
	)
	slog.SetDefault(logger)
}

// levelFromEnv maps LOG_LEVEL to a slog level. Unset or unrecognized
// values mean errors only.
func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
