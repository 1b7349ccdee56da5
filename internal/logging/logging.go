// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// New returns a slog.Logger backed by a charmbracelet/log handler. format is
// "json" for machine-readable output (Lambda) or "text" for local runs.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := log.Options{
		Level:           log.Level(level),
		ReportTimestamp: true,
	}
	if format == "json" {
		opts.Formatter = log.JSONFormatter
	}

	return slog.New(log.NewWithOptions(w, opts))
}

// Setup installs the logger as the slog default and returns it.
func Setup(level slog.Level, format string) *slog.Logger {
	logger := New(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}
