package logging

import (
	"io"
	"log/slog"
	"os"
)

var stdout io.Writer = os.Stdout

// Setup installs a JSON slog logger on stdout as the process default.
func Setup() {
	slog.SetDefault(slog.New(NewStdoutHandler(stdout)))
}

// NewStdoutHandler is the JSON handler every logger in the service writes through.
func NewStdoutHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}
