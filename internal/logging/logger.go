// Package logging wires log/slog for the server and the CLI.
//
// Entries written while serving a request carry chi's request id. The web
// layer adds view_id, so a scroll or slider move can be followed from the
// browser request to the generator fetch it caused:
//
//	level=DEBUG msg="fetch applied" request_id=host/xK3-000012 view_id=3f1c... page=4 rows=20
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup builds a logger with New and installs it as the slog default.
// The server logs to stdout; rows and export log to stderr so their
// output can be piped.
func Setup(w io.Writer, level, format string) *slog.Logger {
	logger := New(w, level, format)
	slog.SetDefault(logger)
	return logger
}

// New returns a text or JSON logger writing to w. Any format other than
// "json" is text.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel accepts slog level names in any case, offsets such as
// "info+2", and "warning". Anything else is info.
func ParseLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// FromContext returns the default logger, tagged with request_id when ctx
// came through chi's RequestID middleware.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := middleware.GetReqID(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	return logger
}

// WithFields is FromContext plus fields:
//
//	logging.WithFields(ctx, "view_id", v.ID(), "page", page).Warn("page fetch failed", "error", err)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
