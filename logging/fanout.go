package logging

import (
	"context"
	"log/slog"
)

// Fanout is a slog.Handler that duplicates each record to multiple sink
// handlers. Sink failures are isolated: a failing or panicking sink never
// prevents the remaining sinks from receiving the record, and never raises
// an error to the logging caller.
type Fanout struct {
	handlers []slog.Handler
}

// NewFanout creates a fanout handler over the given sinks
func NewFanout(handlers ...slog.Handler) *Fanout {
	return &Fanout{handlers: handlers}
}

// Enabled reports whether any sink is enabled for the level
func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers the record to every enabled sink. Always returns nil:
// observability failures must stay invisible to the request path.
func (f *Fanout) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		f.handleOne(ctx, h, record.Clone())
	}
	return nil
}

// handleOne dispatches to a single sink, containing panics
func (f *Fanout) handleOne(ctx context.Context, h slog.Handler, record slog.Record) {
	defer func() {
		_ = recover()
	}()
	_ = h.Handle(ctx, record)
}

// WithAttrs returns a fanout whose sinks all carry the attrs
func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &Fanout{handlers: handlers}
}

// WithGroup returns a fanout whose sinks all open the group
func (f *Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &Fanout{handlers: handlers}
}
