package svc

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"amptimal.dev/svc/internal/loghandler"
)

// LogOptions controls [SetupLogging].
type LogOptions struct {
	// Level is the minimum logging level: "debug", "info", "warn" or
	// "error". Empty means "info".
	Level string
	// Format selects the output format: "json", "text", "human" or
	// "auto". Empty means "auto", which picks "human" when attached to
	// a terminal and "json" otherwise.
	Format string
	// Output is the destination writer. Defaults to os.Stderr.
	Output io.Writer
}

// SetupLogging returns a [*slog.Logger] configured for a service. Every
// record carries a "service" attribute with the given name so that
// aggregated logs can be filtered per service.
//
// The returned logger is a plain slog logger: pass it to anything that
// takes one, including the other packages in this module.
func SetupLogging(serviceName string, opts LogOptions) *slog.Logger {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	var h slog.Handler
	switch opts.Format {
	case "json":
		h = loghandler.NewJSON(w, level)
	case "text":
		h = loghandler.NewText(w, level)
	case "human":
		h = loghandler.NewHuman(w, level)
	default:
		h = loghandler.NewAuto(w, level)
	}
	h = h.WithAttrs([]slog.Attr{slog.String("service", serviceName)})
	return slog.New(h)
}

// ParseLevel converts a settings-style level string to a [slog.Level].
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q", s)
}
