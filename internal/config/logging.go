package config

import (
	"io"
	"log/slog"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// NewHandler returns a text or JSON handler writing to w at level.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SetupLogger creates the logger for one invocation. Records go to w in
// format; when extra handlers are given (the diagnostic buffer), every
// record is fanned out to them as well.
func SetupLogger(w io.Writer, format string, level slog.Level, extra ...slog.Handler) *slog.Logger {
	h := NewHandler(w, format, level)
	if len(extra) == 0 {
		return slog.New(h)
	}
	return slog.New(slogmulti.Fanout(append([]slog.Handler{h}, extra...)...))
}
