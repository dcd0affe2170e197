package health

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultExcluded = []string{"/health", "/ready", "/metrics"}

// Instrument wraps next with standard HTTP metrics recorded on m's
// registry: <prefix>_http_requests_total{code,method} and
// <prefix>_http_request_duration_seconds{code,method}. It is meant for
// services that mount [NewHandler] on their own listener and want their
// application routes measured on the same registry.
//
// Requests whose path is in excluded pass through unmeasured. When no
// exclusions are given, the instrumentation routes themselves
// (/health, /ready, /metrics) are excluded so scrapes and probes don't
// pollute the request metrics.
func (m *Metrics) Instrument(next http.Handler, excluded ...string) http.Handler {
	if len(excluded) == 0 {
		excluded = defaultExcluded
	}
	skip := make(map[string]bool, len(excluded))
	for _, path := range excluded {
		skip[path] = true
	}

	measured := promhttp.InstrumentHandlerCounter(m.httpRequests,
		promhttp.InstrumentHandlerDuration(m.httpDuration, next))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skip[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		measured.ServeHTTP(w, r)
	})
}
