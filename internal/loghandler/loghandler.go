// Package loghandler provides the slog formatters used by svc: JSON and
// logfmt-style text for aggregation, a colorized human format for
// terminals, and an auto mode that picks between them.
package loghandler

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

func NewJSON(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	})
}

func NewText(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	})
}

// NewAuto returns a human handler when w is a terminal and a JSON
// handler otherwise.
func NewAuto(w io.Writer, level slog.Leveler) slog.Handler {
	if isTerm(w) {
		return NewHuman(w, level)
	}
	return NewJSON(w, level)
}

func isTerm(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		if isatty.IsTerminal(f.Fd()) {
			return true
		}
	}
	return false
}
