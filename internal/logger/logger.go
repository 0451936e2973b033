package logger

import (
	"io"
	"log/slog"
	"os"
)

func New(env string) *slog.Logger { return NewWithWriter(os.Stdout, env) }

// NewWithWriter logs JSON at info in prod, text at warn in test and text
// at debug otherwise.
func NewWithWriter(w io.Writer, env string) *slog.Logger {
	var h slog.Handler
	switch env {
	case "prod":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "test":
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h).With("app", "sample-app")
}
