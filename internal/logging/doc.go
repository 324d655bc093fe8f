// Package logging assembles the structured slog loggers used across the
// collector.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and standardizes field keys so every component tags log lines
// with the same shape (component, job id, season, video id). A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
