package svctest

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/jba/slog/withsupport"
)

type testHandler struct {
	t   *testing.T
	es  ErrorStrategy
	goa *withsupport.GroupOrAttrs
}

func newHandler(t *testing.T, options ...LoggerOption) slog.Handler {
	th := &testHandler{
		t: t,
	}
	for _, o := range options {
		o(th)
	}
	return th
}

func (h *testHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *testHandler) WithGroup(name string) slog.Handler {
	h2 := *h
	h2.goa = h2.goa.WithGroup(name)
	return &h2
}

func (h *testHandler) WithAttrs(as []slog.Attr) slog.Handler {
	h2 := *h
	h2.goa = h2.goa.WithAttrs(as)
	return &h2
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	var attrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool { attrs = append(attrs, a); return true })
	for g := h.goa; g != nil; g = g.Next {
		if g.Group != "" {
			anys := make([]any, len(attrs))
			for i, a := range attrs {
				anys[i] = a
			}
			attrs = []slog.Attr{slog.Group(g.Group, anys...)}
		} else {
			attrs = append(slices.Clip(g.Attrs), attrs...)
		}
	}

	var sb strings.Builder
	sb.WriteString(r.Level.String() + ": " + r.Message)
	for _, a := range attrs {
		printAttr(&sb, a)
	}
	h.t.Log(sb.String())

	if r.Level >= slog.LevelError {
		switch h.es {
		case Fail:
			h.t.Fail()
		case FailNow:
			h.t.FailNow()
		}
	}
	return nil
}

func printAttr(sb *strings.Builder, a slog.Attr) {
	val := a.Value.Resolve()
	if val.Kind() == slog.KindGroup {
		for _, ga := range val.Group() {
			printAttr(sb, slog.Attr{Key: a.Key + "." + ga.Key, Value: ga.Value})
		}
		return
	}
	fmt.Fprintf(sb, " %s=%v", a.Key, val.Any())
}
