/*
svc is the shared utility module for Amptimal services. It collects the
small conveniences every service needs so they don't get rewritten
per-repo: structured logging setup, an environment-driven settings base,
retry with exponential backoff (svc/retry), and a background
health/readiness/metrics server (svc/health).

Each piece is independent. A typical service wires them together like so:

	settings := svc.NewSettings("pr-reviewer")
	if err := settings.Load(os.Args[1:]); err != nil {
		// ...
	}
	logger := svc.SetupLogging("pr-reviewer", svc.LogOptions{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
	})

	metrics := health.NewMetrics("pr-reviewer")
	server := health.NewServer("pr-reviewer", fmt.Sprintf(":%d", settings.HealthPort), metrics,
		health.WithLogger(logger),
		health.WithDependencyCheck(deps.Check),
	)
	if err := server.Start(); err != nil {
		// ...
	}
	defer server.Stop()

Supporting packages cover the rest of the shared surface: svc/redisx
(shared Redis client), svc/ratelimit (keyed HTTP rate limiting),
svc/secrets (cached secret lookup with env fallback), and svc/auth
(forwardAuth header identity).
*/
package svc
