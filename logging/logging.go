// Package logging provides structured logging for observability-app on top
// of log/slog. A logger writes to one or more sinks: the local console
// (JSON or text) and optionally a remote Loki aggregator. Sink failures are
// isolated from each other and are never surfaced to the logging caller.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/kayaman/observability-app/config"
)

// ParseLevel converts a config level string to a slog.Level.
// Unknown values default to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewConsoleHandler creates the local console sink handler
func NewConsoleHandler(cfg config.LoggingConfig) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: strings.ToLower(cfg.Level) == "debug",
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		return slog.NewTextHandler(os.Stdout, opts)
	default:
		return slog.NewJSONHandler(os.Stdout, opts)
	}
}

// NewLogger creates a structured logger writing to the console and any
// additional sinks. With no sinks the logger writes to the console alone.
func NewLogger(cfg config.LoggingConfig, sinks ...slog.Handler) *slog.Logger {
	console := NewConsoleHandler(cfg)
	if len(sinks) == 0 {
		return slog.New(console)
	}

	handlers := make([]slog.Handler, 0, len(sinks)+1)
	handlers = append(handlers, console)
	handlers = append(handlers, sinks...)

	return slog.New(NewFanout(handlers...))
}
