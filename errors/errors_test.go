package errors

import (
	stderr "errors"
	"testing"
)

func TestNewCapturesLocation(t *testing.T) {
	err := New("boom")
	if err.Error() != "boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	loc := err.Location()
	if loc.File != "errors_test.go" {
		t.Errorf("location file = %q, want errors_test.go", loc.File)
	}
	if loc.Line == 0 {
		t.Errorf("location line not captured")
	}
}

func TestWrapUnwraps(t *testing.T) {
	sentinel := stderr.New("connection refused")
	err := Wrap(sentinel, "pinging redis")

	if want := "pinging redis: connection refused"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderr.Is(err, sentinel) {
		t.Errorf("errors.Is failed to find the wrapped sentinel")
	}
}

func TestErrorfWrapVerb(t *testing.T) {
	sentinel := stderr.New("timeout")
	err := Errorf("fetching %s: %w", "pr-42", sentinel)

	if !stderr.Is(err, sentinel) {
		t.Errorf("errors.Is failed through Errorf %%w")
	}
	if want := "fetching pr-42: timeout"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAs(t *testing.T) {
	inner := New("inner")
	outer := stderr.Join(stderr.New("other"), inner)

	var got *Error
	if !stderr.As(outer, &got) {
		t.Fatalf("errors.As failed to find *Error")
	}
	if got != inner {
		t.Errorf("errors.As found %v, want the inner error", got)
	}
}

func TestWithFields(t *testing.T) {
	err := New("push failed").With("gateway", "http://pushgw").With("attempts", 3)

	fields := err.Fields()
	want := []any{"err_gateway", "http://pushgw", "err_attempts", 3}
	if len(fields) != len(want) {
		t.Fatalf("Fields() = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("Fields()[%d] = %v, want %v", i, fields[i], want[i])
		}
	}
}

func TestLocationString(t *testing.T) {
	loc := Location{File: "handler.go", Line: 17}
	if got := loc.String(); got != "handler.go:17" {
		t.Errorf("String() = %q", got)
	}
}
