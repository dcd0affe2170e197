package redisx

import (
	"os"
	"testing"

	"amptimal.dev/svc/svctest"
)

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("not-a-redis-url", svctest.NewLogger(t))
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestNew_AcceptsWellFormedURL(t *testing.T) {
	c, err := New("redis://localhost:6379/0", svctest.NewLogger(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func testClient(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping Redis integration test")
	}
	c, err := New(url, svctest.NewLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPing_Integration(t *testing.T) {
	c := testClient(t)
	if err := c.Ping(t.Context()); err != nil {
		t.Fatalf("cannot reach Redis: %v", err)
	}
}

func TestRoundTrip_Integration(t *testing.T) {
	c := testClient(t)
	ctx := t.Context()

	key := "test:redisx:" + t.Name()
	if err := c.Unwrap().Set(ctx, key, "v1", 0).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Unwrap().Get(ctx, key).Result()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "v1" {
		t.Fatalf("Get = %q, want %q", got, "v1")
	}
}
