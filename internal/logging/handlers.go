package logging

import (
	"context"
	"errors"
	"log/slog"
)

type fanoutHandler []slog.Handler

// Fanout returns a handler that forwards each record to every handler
// enabled for its level. Errors from all sinks are joined.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return fanoutHandler(append([]slog.Handler(nil), handlers...))
}

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanoutHandler) each(fn func(slog.Handler) slog.Handler) fanoutHandler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

type thresholdHandler struct {
	next slog.Handler
	min  slog.Level
}

// AtLeast drops records below min before they reach h.
func AtLeast(h slog.Handler, min slog.Level) slog.Handler {
	return thresholdHandler{next: h, min: min}
}

func (t thresholdHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= t.min && t.next.Enabled(ctx, level)
}

func (t thresholdHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < t.min {
		return nil
	}
	return t.next.Handle(ctx, r)
}

func (t thresholdHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return thresholdHandler{next: t.next.WithAttrs(attrs), min: t.min}
}

func (t thresholdHandler) WithGroup(name string) slog.Handler {
	return thresholdHandler{next: t.next.WithGroup(name), min: t.min}
}
