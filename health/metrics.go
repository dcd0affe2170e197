// Package health provides the background health/readiness/metrics
// server for Amptimal services, plus the embeddable handler and metrics
// registry behind it. A service starts a [Server] (or mounts
// [NewHandler] on its own listener), updates its [Metrics] as it works,
// and lets its orchestrator poll /health, /ready and /metrics.
package health

import (
	"strings"
	"time"

	"github.com/go-kit/kit/metrics"
	promkit "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics is the fixed per-service metric set, backed by its own
// prometheus registry so that multiple servers or tests can coexist in
// one process without interference. All mutators are safe for
// concurrent use from any number of goroutines while the server is
// serving scrapes; counters never decrease for the lifetime of the
// registry.
type Metrics struct {
	registry    *prometheus.Registry
	requests    metrics.Counter
	errors      metrics.Counter
	currentOp   metrics.Gauge
	lastSuccess metrics.Gauge

	// Native collectors for the promhttp instrumentation wrappers,
	// which don't speak the go-kit facade.
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics creates the metric set for a service. Metric names are
// prefixed with the service name (dashes replaced by underscores):
// <prefix>_requests_total, <prefix>_errors_total,
// <prefix>_current_operation and <prefix>_last_success_timestamp.
func NewMetrics(service string) *Metrics {
	prefix := strings.ReplaceAll(service, "-", "_")

	registry := prometheus.NewRegistry()
	// Instrument the Go runtime via runtime/metrics rather than the old
	// memstats-style collectors.
	registry.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollectorMemStatsMetricsDisabled(),
		collectors.WithGoCollectorRuntimeMetrics(collectors.MetricsAll),
	))

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prefix + "_requests_total",
		Help: "Total requests processed by " + service,
	}, []string{"status"})
	registry.MustRegister(requests)

	errCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prefix + "_errors_total",
		Help: "Total errors in " + service,
	}, []string{"error_type"})
	registry.MustRegister(errCount)

	currentOp := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: prefix + "_current_operation",
		Help: "Whether " + service + " is currently processing (1=yes, 0=no)",
	}, nil)
	registry.MustRegister(currentOp)

	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: prefix + "_last_success_timestamp",
		Help: "Unix timestamp of last successful operation in " + service,
	}, nil)
	registry.MustRegister(lastSuccess)

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prefix + "_http_requests_total",
		Help: "HTTP requests served by " + service,
	}, []string{"code", "method"})
	registry.MustRegister(httpRequests)

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prefix + "_http_request_duration_seconds",
		Help:    "HTTP request latency for " + service,
		Buckets: prometheus.DefBuckets,
	}, []string{"code", "method"})
	registry.MustRegister(httpDuration)

	return &Metrics{
		registry:     registry,
		requests:     promkit.NewCounter(requests),
		errors:       promkit.NewCounter(errCount),
		currentOp:    promkit.NewGauge(currentOp),
		lastSuccess:  promkit.NewGauge(lastSuccess),
		httpRequests: httpRequests,
		httpDuration: httpDuration,
	}
}

// Requests increments the requests_total counter for the given status
// label, e.g. "success" or "failure".
func (m *Metrics) Requests(status string) {
	m.requests.With("status", status).Add(1)
}

// Errors increments the errors_total counter for the given error type.
func (m *Metrics) Errors(errorType string) {
	m.errors.With("error_type", errorType).Add(1)
}

// SetCurrentOperation sets the current_operation gauge.
func (m *Metrics) SetCurrentOperation(v float64) {
	m.currentOp.Set(v)
}

// MarkSuccess records the wall-clock time of a successful operation in
// the last_success_timestamp gauge.
func (m *Metrics) MarkSuccess() {
	m.lastSuccess.Set(float64(time.Now().Unix()))
}

// Gatherer exposes the underlying registry for exposition.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
