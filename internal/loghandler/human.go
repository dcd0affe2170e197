package loghandler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	warnP  = color.New(color.FgYellow).FprintFunc()
	errorP = color.New(color.FgRed).FprintFunc()
	dimP   = color.New(color.FgHiBlack).FprintFunc()
	msgP   = color.New(color.Bold).FprintFunc()
	keyP   = color.New(color.FgGreen).Add(color.Faint).FprintFunc()
)

// humanHandler makes logs easy to read from the CLI. The "service"
// attribute is suppressed, since a human watching a terminal knows what
// they are running.
type humanHandler struct {
	mu       *sync.Mutex
	w        io.Writer
	minLevel slog.Leveler
	group    string
	static   []slog.Attr
}

func NewHuman(w io.Writer, level slog.Leveler) slog.Handler {
	return &humanHandler{
		mu:       &sync.Mutex{},
		w:        w,
		minLevel: level,
	}
}

func (h *humanHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel.Level()
}

func (h *humanHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	dimP(&b, r.Time.Format("Jan 02 15:04:05"))
	b.WriteString(" ")
	switch r.Level {
	case slog.LevelDebug:
		dimP(&b, "DBG")
	case slog.LevelInfo:
		b.WriteString("INF")
	case slog.LevelWarn:
		warnP(&b, "WRN")
	case slog.LevelError:
		errorP(&b, "ERR")
	}
	dimP(&b, " - ")
	if r.Message == "" {
		msgP(&b, "<no message>")
	} else {
		msgP(&b, r.Message)
	}
	for _, a := range h.static {
		printAttr(&b, h.group, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		printAttr(&b, h.group, a)
		return true
	})
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *humanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.static = append(append([]slog.Attr{}, h.static...), attrs...)
	return &h2
}

func (h *humanHandler) WithGroup(name string) slog.Handler {
	h2 := *h
	if h2.group != "" {
		name = h2.group + "." + name
	}
	h2.group = name
	return &h2
}

func printAttr(b *strings.Builder, group string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if key == "service" {
		return
	}
	b.WriteString(" ")
	printer := keyP
	if strings.HasPrefix(key, "err") {
		printer = errorP
	}
	printer(b, key+"=")
	val := a.Value.Resolve()
	switch val.Kind() {
	case slog.KindGroup:
		dimP(b, "[")
		for _, ga := range val.Group() {
			printAttr(b, key, ga)
		}
		dimP(b, " ]")
	case slog.KindString:
		dimP(b, maybeQuote(val.String()))
	default:
		dimP(b, fmt.Sprint(val.Any()))
	}
}

func maybeQuote(s string) string {
	if strings.ContainsAny(s, " \t\"=") {
		return strconv.Quote(s)
	}
	return s
}
