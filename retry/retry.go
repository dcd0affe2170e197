// Package retry provides retry with deterministic exponential backoff
// for flaky operations: a generic call wrapper, a decorator form, and
// the backoff calculation itself. It is entirely optional and never
// applied implicitly by the other packages in this module.
package retry

import (
	"context"
	stderr "errors"
	"fmt"
	"time"

	"amptimal.dev/svc/errors"
)

// Config controls the retry behaviour of [Do] and [Wrap].
type Config struct {
	// MaxAttempts is the total number of times the operation is
	// invoked, including the first attempt. Must be >= 1; a value of 1
	// performs no retries.
	MaxAttempts int

	// Policy computes the delay between attempts. The zero value is
	// replaced with DefaultPolicy.
	Policy Policy

	// Retryable lists the failure kinds worth retrying, matched against
	// a returned error with errors.Is. An error matching none of them
	// propagates immediately. Empty means no error is retried unless
	// RetryIf says otherwise.
	Retryable []error

	// RetryIf, when set, marks additional errors as retryable. It is
	// consulted only after Retryable fails to match.
	RetryIf func(error) bool

	// OnRetry, when set, is called with the failure and the 0-based
	// attempt number before each backoff sleep. Its usual job is
	// logging; its effects are not interpreted.
	OnRetry func(err error, attempt int)
}

func (c Config) validate() error {
	if c.MaxAttempts < 1 {
		return errors.Errorf("%w: max attempts %d must be >= 1", ErrInvalidArgument, c.MaxAttempts)
	}
	return c.Policy.validate()
}

func (c Config) retryable(err error) bool {
	for _, kind := range c.Retryable {
		if stderr.Is(err, kind) {
			return true
		}
	}
	if c.RetryIf != nil {
		return c.RetryIf(err)
	}
	return false
}

// ExhaustedError is returned when every permitted attempt has failed
// with a retryable error. It wraps the last failure.
type ExhaustedError struct {
	// Attempts is the number of invocations made.
	Attempts int
	// Err is the failure from the final attempt.
	Err error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do calls fn up to cfg.MaxAttempts times, sleeping between attempts
// per cfg.Policy. A success returns immediately. A failure that is not
// retryable per cfg propagates unchanged with no delay. When the
// attempt budget is spent, the last failure is returned wrapped in
// [*ExhaustedError].
//
// Only the calling goroutine suspends during backoff waits; ctx is
// honored during them, so a cancelled context ends the loop with
// ctx.Err() instead of sleeping out the delay. An invalid cfg is
// reported without invoking fn.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy
	}
	if err := cfg.validate(); err != nil {
		return zero, err
	}

	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !cfg.retryable(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts-1 {
			return zero, &ExhaustedError{Attempts: cfg.MaxAttempts, Err: err}
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(err, attempt)
		}

		// Delay cannot fail here: the config was validated and attempt
		// is non-negative.
		delay, _ := cfg.Policy.Delay(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// Wrap is the decorator form of [Do] for context-free operations: it
// returns a function with the same signature as fn that applies the
// retry semantics transparently on every call. The configuration is
// checked once, at wrap time.
func Wrap(cfg Config, fn func() error) (func() error, error) {
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return func() error {
		_, err := Do(context.Background(), cfg, func(context.Context) (struct{}, error) {
			return struct{}{}, fn()
		})
		return err
	}, nil
}
