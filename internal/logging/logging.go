// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"

	"github.com/akyapi/warehouse-auth/internal/config"
)

// New returns a human-readable debug logger for local runs and a JSON
// info logger everywhere else.
func New(env string, w io.Writer) *slog.Logger {
	if env == config.EnvLocal {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Err is a shorthand for the error attribute used across the service.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
