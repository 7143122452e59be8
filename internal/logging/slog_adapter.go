package logging

import (
	"context"
	"log/slog"
)

// Slog exposes l as a *slog.Logger for libraries that only accept one,
// such as the supervisor's event hook.
func Slog(l Logger) *slog.Logger {
	if s, ok := l.(*SlogLogger); ok {
		return s.l
	}
	return slog.New(&handler{l: l})
}

// handler forwards slog records to a Logger. Level filtering is left to
// the Logger.
type handler struct {
	l      Logger
	prefix string
}

func (h *handler) Enabled(context.Context, slog.Level) bool { return true }

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	args := make([]any, 0, 2*r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		args = append(args, h.prefix+a.Key, a.Value.Any())
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		h.l.Error(ctx, r.Message, args...)
	case r.Level >= slog.LevelWarn:
		h.l.Warn(ctx, r.Message, args...)
	case r.Level >= slog.LevelInfo:
		h.l.Info(ctx, r.Message, args...)
	default:
		h.l.Debug(ctx, r.Message, args...)
	}
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	args := make([]any, 0, 2*len(attrs))
	for _, a := range attrs {
		args = append(args, h.prefix+a.Key, a.Value.Any())
	}
	return &handler{l: h.l.With(args...), prefix: h.prefix}
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &handler{l: h.l, prefix: h.prefix + name + "."}
}
