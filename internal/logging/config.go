package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Supported output formats.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects the backend and verbosity of the process logger.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// New builds a Logger from cfg. "text" and "json" use log/slog, "console"
// uses zerolog's human-friendly writer.
func New(cfg Config) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(cfg.Format) {
	case FormatConsole:
		zl := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}).
			Level(zerologLevel(cfg.Level)).
			With().Timestamp().Logger()
		return NewZerologLogger(zl)
	case FormatJSON:
		h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slogLevel(cfg.Level)})
		return NewSlogLogger(slog.New(h))
	default:
		h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slogLevel(cfg.Level)})
		return NewSlogLogger(slog.New(h))
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() Logger {
	return NewSlogLogger(slog.New(slog.DiscardHandler))
}

func slogLevel(level string) slog.Level {
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

func zerologLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
