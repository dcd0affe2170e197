// Package svctest provides test helpers for code built on this module,
// chiefly a [*slog.Logger] that routes records through testing's log
// output so they are captured per-test and only shown on failure.
package svctest

import (
	"log/slog"
	"testing"
)

// ErrorStrategy defines what a test logger should do when a message is
// logged at the error level.
type ErrorStrategy int

const (
	// Ignore takes no action. This is the default.
	Ignore ErrorStrategy = iota
	// Fail marks the test as failed, but continues.
	Fail
	// FailNow marks the test as failed and exits immediately.
	FailNow
)

// LoggerOption configures [NewLogger].
type LoggerOption func(*testHandler)

// WithErrorStrategy sets the action taken on error-level records.
func WithErrorStrategy(es ErrorStrategy) LoggerOption {
	return func(th *testHandler) {
		th.es = es
	}
}

// NewLogger returns a [*slog.Logger] that outputs all records via
// t.Log.
func NewLogger(t *testing.T, options ...LoggerOption) *slog.Logger {
	return slog.New(newHandler(t, options...))
}
