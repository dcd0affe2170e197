package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/flow"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusFunc supplies service-specific status fields merged into the
// /health and /ready response bodies. It is invoked fresh on every
// request, never cached. An error (or panic, which is recovered) never
// reaches the client as a 5xx on /health; see the route docs on
// [NewHandler].
type StatusFunc func(context.Context) (map[string]any, error)

// DependencyCheck reports whether the service's dependencies are
// usable; nil means healthy. It is invoked fresh on every /ready
// request, never cached and never retried. Panics are recovered and
// treated as unhealthy.
type DependencyCheck func(context.Context) error

type options struct {
	logger      *slog.Logger
	status      StatusFunc
	deps        DependencyCheck
	stopTimeout time.Duration
	pushURL     string
}

// Option configures [NewHandler] and [NewServer].
type Option func(*options)

// WithLogger sets the logger for internal diagnostics. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStatusFunc sets the status callback merged into /health and
// /ready bodies.
func WithStatusFunc(fn StatusFunc) Option {
	return func(o *options) { o.status = fn }
}

// WithDependencyCheck sets the readiness predicate. When omitted,
// /ready always reports ready.
func WithDependencyCheck(fn DependencyCheck) Option {
	return func(o *options) { o.deps = fn }
}

// WithStopTimeout sets the grace period [Server.Stop] allows in-flight
// requests before the listener is forcibly closed. Non-positive values
// are ignored. Default: 5 seconds.
func WithStopTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.stopTimeout = d
		}
	}
}

// WithPushGateway sets a Prometheus Pushgateway URL. When set, the
// server pushes its final metric state there during [Server.Stop],
// using the service name as the job.
func WithPushGateway(url string) Option {
	return func(o *options) { o.pushURL = url }
}

func buildOptions(opts []Option) options {
	o := options{
		logger:      slog.Default(),
		stopTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type handler struct {
	service string
	status  StatusFunc
	deps    DependencyCheck
	logger  *slog.Logger
}

// NewHandler returns the health routes as an embeddable http.Handler
// for services that already run their own listener and want to mount
// these routes instead of binding a second port. It has no lifecycle of
// its own.
//
// Routes:
//
//   - GET /health: liveness. Always 200 while the handler is being
//     served, regardless of dependency health; the dependency check is
//     never consulted. Status fields are merged into the body; a
//     failing status callback degrades to a "status_error" marker
//     field, still 200.
//   - GET /ready: readiness. Invokes the dependency check fresh; 200
//     with status payload when healthy, 503 with a reason/error payload
//     when not (including when the check or the status callback fails
//     or panics). Never crashes the server.
//   - GET /metrics: Prometheus text exposition of the [Metrics] set.
func NewHandler(service string, m *Metrics, opts ...Option) http.Handler {
	o := buildOptions(opts)
	h := &handler{
		service: service,
		status:  o.status,
		deps:    o.deps,
		logger:  o.logger,
	}

	mux := flow.New()
	mux.HandleFunc("/health", h.handleHealth, "GET")
	mux.HandleFunc("/ready", h.handleReady, "GET")
	mux.Handle("/metrics", promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{
		ErrorLog:          slog.NewLogLogger(o.logger.Handler(), slog.LevelError),
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	}), "GET")
	return mux
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"service": h.service,
	}
	if h.status != nil {
		fields, err := h.statusFields(r.Context())
		if err != nil {
			h.logger.Warn("status callback failed", "err", err)
			body["status_error"] = err.Error()
		} else {
			mergeStatus(body, fields)
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.checkDependencies(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "not_ready",
			"service": h.service,
			"reason":  "dependencies_unavailable",
			"error":   err.Error(),
		})
		return
	}

	body := map[string]any{
		"status":  "ready",
		"service": h.service,
	}
	if h.status != nil {
		fields, err := h.statusFields(r.Context())
		if err != nil {
			h.logger.Error("status callback failed during readiness check", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "not_ready",
				"service": h.service,
				"error":   err.Error(),
			})
			return
		}
		mergeStatus(body, fields)
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handler) checkDependencies(ctx context.Context) (err error) {
	if h.deps == nil {
		return nil
	}
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("dependency check panicked: %v", v)
		}
	}()
	return h.deps(ctx)
}

func (h *handler) statusFields(ctx context.Context) (fields map[string]any, err error) {
	defer func() {
		if v := recover(); v != nil {
			fields, err = nil, fmt.Errorf("status callback panicked: %v", v)
		}
	}()
	return h.status(ctx)
}

// mergeStatus copies status fields into the response body without
// letting them clobber the fixed keys.
func mergeStatus(body, fields map[string]any) {
	for k, v := range fields {
		if k == "status" || k == "service" {
			continue
		}
		body[k] = v
	}
}

func writeJSON(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
