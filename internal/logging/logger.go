package logging

import (
	"io"
	"log/slog"
	"os"
)

// NewStdoutHandler returns the console handler: JSON in production, text
// everywhere else.
func NewStdoutHandler(w io.Writer, environment string) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if environment == "production" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Setup initializes the global slog logger on stdout.
func Setup(environment string) {
	slog.SetDefault(slog.New(NewStdoutHandler(os.Stdout, environment)))
}
