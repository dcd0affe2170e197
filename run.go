package svc

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// JobFn is a unit of background work run by [Run]. Jobs should return
// when their context is canceled.
type JobFn func(context.Context, *slog.Logger) error

// Job adapts a function taking an extra argument into a JobFn:
//
//	func poll(ctx context.Context, log *slog.Logger, client *Client) error { ... }
//
//	svc.Run(ctx, logger, svc.Job(poll, client))
func Job[T any](fn func(context.Context, *slog.Logger, T) error, arg T) JobFn {
	return func(ctx context.Context, logger *slog.Logger) error {
		return fn(ctx, logger, arg)
	}
}

// Run executes jobs concurrently and blocks until they all return or
// one fails, whichever comes first. The first failure cancels the
// shared context and is returned once the remaining jobs exit.
//
// An interrupt or termination signal cancels the context so jobs can
// shut down cleanly; a second signal restores default delivery, so it
// kills the process if shutdown hangs.
func Run(ctx context.Context, logger *slog.Logger, jobs ...JobFn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered for two deliveries: the graceful one and the impatient
	// follow-up.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	eg, egctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		eg.Go(func() error {
			return job(egctx, logger)
		})
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-signals:
			logger.Info("received shutdown signal")
			signal.Reset(os.Interrupt, syscall.SIGTERM)
			cancel()
		case <-done:
		}
	}()

	err := eg.Wait()
	close(done)
	return err
}
