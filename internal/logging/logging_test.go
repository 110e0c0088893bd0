package logging

import (
	"log/slog"
	"testing"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"dev", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelError},
		{"gibberish", slog.LevelError},
	}

	for _, tt := range tests {
		t.Setenv("LOG_LEVEL", tt.value)
		if got := levelFromEnv(); got != tt.want {
			t.Errorf("levelFromEnv() with LOG_LEVEL=%q = %v, want %v", tt.value, got, tt.want)
		}
	}
}
