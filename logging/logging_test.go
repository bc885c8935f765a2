package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kayaman/observability-app/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.expected, ParseLevel(test.input))
		})
	}
}

func TestNewLogger_ConsoleOnly(t *testing.T) {
	logger := NewLogger(config.LoggingConfig{Level: "info", Format: "json"})

	assert.NotNil(t, logger)
	assert.True(t, logger.Enabled(nil, slog.LevelInfo))
	assert.False(t, logger.Enabled(nil, slog.LevelDebug))
}

func TestNewLogger_WithSinks(t *testing.T) {
	sink := &captureHandler{}

	// Console at error level: the info record below reaches only the sink
	logger := NewLogger(config.LoggingConfig{Level: "error", Format: "json"}, sink)
	logger.Info("request completed", "status_code", 200)

	assert.Equal(t, 1, sink.count())
}

func TestNewConsoleHandler_RespectsLevel(t *testing.T) {
	handler := NewConsoleHandler(config.LoggingConfig{Level: "warn", Format: "text"})

	assert.False(t, handler.Enabled(nil, slog.LevelInfo))
	assert.True(t, handler.Enabled(nil, slog.LevelWarn))
}
