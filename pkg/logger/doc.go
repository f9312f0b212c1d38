// Package logger provides a structured logging interface for the tweet scraper.
//
// It wraps zerolog with a small API supporting log levels, structured fields
// and an optional log file. Console output goes to stderr; stdout is reserved
// for the run's progress output.
//
//	l, err := logger.New(&cfg.Logging)
//	l.WithField("account", "alice").Info("Resuming from stored history")
//	l.WithError(err).Error("Page request failed")
//
// Tests can use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
