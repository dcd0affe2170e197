// Package errors provides an error type carrying a source location and
// optional key-value fields so that errors surface their context when
// logged with slog. It is a drop-in producer for the stdlib errors
// helpers: values from this package work with errors.Is, errors.As and
// errors.Unwrap.
package errors

import (
	stderr "errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// Error is an error value with an embedded source location and optional
// logging fields.
type Error struct {
	loc        Location
	msg        string
	underlying error
	fields     []any
}

// New returns a new error value capturing the caller's location.
func New(text string) *Error {
	return &Error{
		loc: callerLocation(2),
		msg: text,
	}
}

// Errorf returns a new formatted error value capturing the caller's
// location. The %w verb wraps as with fmt.Errorf.
func Errorf(format string, v ...any) *Error {
	err := fmt.Errorf(format, v...)
	return &Error{
		loc:        callerLocation(2),
		msg:        err.Error(),
		underlying: stderr.Unwrap(err),
	}
}

// Wrap annotates err with a message and the caller's location.
func Wrap(err error, msg string) *Error {
	return &Error{
		loc:        callerLocation(2),
		msg:        msg + ": " + err.Error(),
		underlying: err,
	}
}

func (e *Error) Error() string {
	return e.msg
}

// Unwrap exposes an error wrapped via [Errorf] with %w or via [Wrap].
func (e *Error) Unwrap() error {
	return e.underlying
}

// With attaches a field and value to be logged alongside the error.
// It is a fluent interface and can be chained.
func (e *Error) With(field string, value any) *Error {
	e.fields = append(e.fields, "err_"+field, value)
	return e
}

// Fields returns the attached fields as a flat key-value list suitable
// for passing to slog, each key prefixed with "err_".
func (e *Error) Fields() []any {
	return e.fields
}

// Location returns the source location where the error was created.
func (e *Error) Location() Location {
	return e.loc
}

// Location is a source file position.
type Location struct {
	File string
	Line int
}

// String prints a Location in the form `<file>:<line>`.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

func callerLocation(skip int) Location {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Location{File: "unknown"}
	}
	return Location{File: filepath.Base(file), Line: line}
}
