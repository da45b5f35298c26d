// Package logging builds the structured logger the rest of the module logs
// anomalies through (§7: client misbehavior and transient failures at Warn,
// anomalous time/state at Error). It wires a human-readable handler so the
// same structured fields that are easy to filter in a log aggregator are
// also pleasant to read directly in a terminal during development.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// New builds a slog.Logger backed by tint's colorized handler, writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
