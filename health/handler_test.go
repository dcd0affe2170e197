package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"amptimal.dev/svc/svctest"
)

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("GET %s: decoding body: %v", path, err)
	}
	return rec.Code, body
}

func TestHealth_AlwaysOKEvenWhenUnready(t *testing.T) {
	depsCalled := false
	h := NewHandler("pr-reviewer", NewMetrics("pr-reviewer"),
		WithLogger(svctest.NewLogger(t)),
		WithDependencyCheck(func(context.Context) error {
			depsCalled = true
			return errors.New("redis down")
		}),
	)

	code, body := get(t, h, "/health")
	if code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", code)
	}
	if body["status"] != "ok" || body["service"] != "pr-reviewer" {
		t.Fatalf("unexpected body: %v", body)
	}
	if depsCalled {
		t.Fatal("/health must never invoke the dependency check")
	}
}

func TestHealth_MergesStatusFields(t *testing.T) {
	h := NewHandler("pr-reviewer", NewMetrics("pr-reviewer"),
		WithLogger(svctest.NewLogger(t)),
		WithStatusFunc(func(context.Context) (map[string]any, error) {
			return map[string]any{"prs_reviewed": 42, "status": "clobber attempt"}, nil
		}),
	)

	code, body := get(t, h, "/health")
	if code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", code)
	}
	if body["prs_reviewed"] != float64(42) {
		t.Fatalf("status fields not merged: %v", body)
	}
	if body["status"] != "ok" {
		t.Fatalf("fixed keys must win over status fields: %v", body)
	}
}

func TestHealth_StatusCallbackFailureDegrades(t *testing.T) {
	h := NewHandler("pr-reviewer", NewMetrics("pr-reviewer"),
		WithLogger(svctest.NewLogger(t)),
		WithStatusFunc(func(context.Context) (map[string]any, error) {
			panic("boom")
		}),
	)

	code, body := get(t, h, "/health")
	if code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200 despite status panic", code)
	}
	if _, ok := body["status_error"]; !ok {
		t.Fatalf("expected status_error marker, got %v", body)
	}
}

func TestReady_HealthyAndUnhealthy(t *testing.T) {
	healthy := true
	h := NewHandler("pr-reviewer", NewMetrics("pr-reviewer"),
		WithLogger(svctest.NewLogger(t)),
		WithDependencyCheck(func(context.Context) error {
			if !healthy {
				return errors.New("redis down")
			}
			return nil
		}),
		WithStatusFunc(func(context.Context) (map[string]any, error) {
			return map[string]any{"prs_reviewed": 7}, nil
		}),
	)

	code, body := get(t, h, "/ready")
	if code != http.StatusOK {
		t.Fatalf("GET /ready = %d, want 200", code)
	}
	if body["status"] != "ready" || body["prs_reviewed"] != float64(7) {
		t.Fatalf("unexpected ready body: %v", body)
	}

	healthy = false
	code, body = get(t, h, "/ready")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("GET /ready = %d, want 503", code)
	}
	if body["status"] != "not_ready" || body["reason"] != "dependencies_unavailable" {
		t.Fatalf("unexpected not_ready body: %v", body)
	}
}

func TestReady_DefaultAlwaysHealthy(t *testing.T) {
	h := NewHandler("pr-reviewer", NewMetrics("pr-reviewer"),
		WithLogger(svctest.NewLogger(t)))

	code, _ := get(t, h, "/ready")
	if code != http.StatusOK {
		t.Fatalf("GET /ready with no check = %d, want 200", code)
	}
}

func TestReady_PanickingCheckIs503NotACrash(t *testing.T) {
	h := NewHandler("pr-reviewer", NewMetrics("pr-reviewer"),
		WithLogger(svctest.NewLogger(t)),
		WithDependencyCheck(func(context.Context) error {
			panic("predicate exploded")
		}),
	)

	code, body := get(t, h, "/ready")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("GET /ready = %d, want 503", code)
	}
	errMsg, _ := body["error"].(string)
	if !strings.Contains(errMsg, "predicate exploded") {
		t.Fatalf("expected panic detail in error field, got %v", body)
	}

	// The handler must still serve afterwards.
	if code, _ := get(t, h, "/health"); code != http.StatusOK {
		t.Fatalf("handler did not survive a panicking predicate")
	}
}

func TestReady_StatusFailureIs503(t *testing.T) {
	h := NewHandler("pr-reviewer", NewMetrics("pr-reviewer"),
		WithLogger(svctest.NewLogger(t)),
		WithStatusFunc(func(context.Context) (map[string]any, error) {
			return nil, errors.New("state store unreachable")
		}),
	)

	code, body := get(t, h, "/ready")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("GET /ready = %d, want 503", code)
	}
	if body["status"] != "not_ready" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMetricsRoute_Exposition(t *testing.T) {
	m := NewMetrics("pr-reviewer")
	h := NewHandler("pr-reviewer", m, WithLogger(svctest.NewLogger(t)))

	m.Requests("success")
	m.Requests("success")
	m.Requests("success")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", rec.Code)
	}
	text, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if !strings.Contains(string(text), `pr_reviewer_requests_total{status="success"} 3`) {
		t.Fatalf("exposition missing counter:\n%s", text)
	}
	if !strings.Contains(string(text), "# TYPE pr_reviewer_requests_total counter") {
		t.Fatalf("exposition missing TYPE declaration:\n%s", text)
	}
}
