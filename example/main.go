package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amptimal.dev/svc"
	"amptimal.dev/svc/errors"
	"amptimal.dev/svc/health"
	"amptimal.dev/svc/redisx"
	"amptimal.dev/svc/retry"
)

func main() {
	settings := svc.NewSettings("example-service")
	if err := settings.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := svc.SetupLogging(settings.ServiceName, svc.LogOptions{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
	})
	logger.Info("starting", "version", svc.Version())

	metrics := health.NewMetrics(settings.ServiceName)

	opts := []health.Option{health.WithLogger(logger)}
	if settings.RedisURL != "" {
		rdb, err := redisx.New(settings.RedisURL, logger)
		if err != nil {
			logger.Error("redis setup failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		opts = append(opts, health.WithDependencyCheck(rdb.Ping))
	}
	opts = append(opts, health.WithStatusFunc(func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"queue_depth": 0}, nil
	}))

	server := health.NewServer(settings.ServiceName, fmt.Sprintf(":%d", settings.HealthPort), metrics, opts...)
	if err := server.Start(); err != nil {
		logger.Error("health server failed to start", "error", err)
		os.Exit(1)
	}
	defer server.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := retry.Config{
		MaxAttempts: settings.MaxRetryAttempts,
		Policy:      retry.Policy{Base: time.Second, Max: time.Duration(settings.MaxBackoffSeconds) * time.Second},
		RetryIf:     func(error) bool { return true },
		OnRetry: func(err error, attempt int) {
			logger.Warn("work failed, retrying", "attempt", attempt, "error", err)
		},
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for i := 1; ; i++ {
		select {
		case <-ticker.C:
			metrics.SetCurrentOperation(1)
			result, err := retry.Do(ctx, cfg, func(ctx context.Context) (int, error) {
				return doWork(ctx, i)
			})
			metrics.SetCurrentOperation(0)
			if err != nil {
				metrics.Errors("work_failed")
				logger.Error("work exhausted retries", "item", i, "error", err)
				continue
			}
			metrics.Requests("success")
			metrics.MarkSuccess()
			logger.Info("work done", "item", i, "result", result)
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}

func doWork(_ context.Context, item int) (int, error) {
	if rand.IntN(4) == 0 {
		return 0, errors.New("transient flake").With("item", item)
	}
	return item * item, nil
}
