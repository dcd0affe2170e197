package retry

import (
	"errors"
	"testing"
	"time"
)

func TestDelay_Defaults(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{8, 256 * time.Second},
		{9, 300 * time.Second}, // 512 > 300, capped
		{10, 300 * time.Second},
	}
	for _, tc := range cases {
		got, err := DefaultPolicy.Delay(tc.attempt)
		if err != nil {
			t.Fatalf("Delay(%d): unexpected error: %v", tc.attempt, err)
		}
		if got != tc.want {
			t.Fatalf("Delay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestDelay_Deterministic(t *testing.T) {
	a, _ := DefaultPolicy.Delay(5)
	b, _ := DefaultPolicy.Delay(5)
	if a != b {
		t.Fatalf("Delay(5) not deterministic: %v != %v", a, b)
	}
}

func TestDelay_HugeAttemptSaturates(t *testing.T) {
	// Large enough that naive doubling would overflow int64 many times
	// over; must still saturate at the cap.
	got, err := DefaultPolicy.Delay(1 << 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DefaultPolicy.Max {
		t.Fatalf("Delay(1<<20) = %v, want %v", got, DefaultPolicy.Max)
	}
}

func TestDelay_NegativeAttempt(t *testing.T) {
	_, err := DefaultPolicy.Delay(-1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewPolicy_Validation(t *testing.T) {
	cases := []struct {
		name      string
		base, max time.Duration
		wantErr   bool
	}{
		{"valid", time.Second, 300 * time.Second, false},
		{"base equals max", time.Second, time.Second, false},
		{"zero base", 0, time.Second, true},
		{"negative base", -time.Second, time.Second, true},
		{"max below base", 2 * time.Second, time.Second, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPolicy(tc.base, tc.max)
			if tc.wantErr && !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDelay_CustomBase(t *testing.T) {
	p, err := NewPolicy(500*time.Millisecond, 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := p.Delay(3)
	if want := 4 * time.Second; got != want {
		t.Fatalf("Delay(3) = %v, want %v", got, want)
	}
}
