// Package logger builds the process slog.Logger and provides attribute helpers.
//
// Helpers return an empty slog.Attr for zero values, so
//
//	log.Warn("send failed", logger.Error(err), logger.Identity(id))
//
// needs no nil checks at the call site.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects level and output format.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New creates a logger. Format "json" selects the JSON handler, anything else text.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		h = slog.NewJSONHandler(out, handlerOpts)
	} else {
		h = slog.NewTextHandler(out, handlerOpts)
	}
	return slog.New(h)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
