// Package logging assembles the structured slog loggers used across the
// dispatcher.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and provides a no-op logger for tests and wiring code that cannot fail.
// Every component receives its logger explicitly; there is no process-wide
// logger state.
package logging
