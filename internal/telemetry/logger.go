// Package telemetry provides observability for the expression engine:
// a structured logger and Prometheus metrics for tier transitions.
package telemetry

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger creates a structured JSON logger with default fields.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// NopLogger returns a logger that discards everything. Used where a
// component requires a logger but the embedder configured none.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
