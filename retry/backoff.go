package retry

import (
	"time"

	"amptimal.dev/svc/errors"
)

// ErrInvalidArgument reports a bad policy or parameter value. It is
// returned (wrapped) for negative attempt numbers, non-positive backoff
// bases, caps below the base, and non-positive attempt ceilings.
var ErrInvalidArgument = errors.New("retry: invalid argument")

// Policy governs the delay computed before each retry attempt. The
// delay for attempt n (0-based) is Base * 2^n, saturating at Max. No
// jitter is introduced: the computation is deterministic.
type Policy struct {
	// Base is the delay before the first retry. Must be > 0.
	Base time.Duration
	// Max caps the computed delay. Must be >= Base.
	Max time.Duration
}

// DefaultPolicy matches the service-wide defaults: 1s base, 5m cap.
var DefaultPolicy = Policy{Base: time.Second, Max: 300 * time.Second}

// NewPolicy validates and returns a Policy.
func NewPolicy(base, max time.Duration) (Policy, error) {
	p := Policy{Base: base, Max: max}
	if err := p.validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p Policy) validate() error {
	if p.Base <= 0 {
		return errors.Errorf("%w: base %v must be > 0", ErrInvalidArgument, p.Base)
	}
	if p.Max < p.Base {
		return errors.Errorf("%w: max %v must be >= base %v", ErrInvalidArgument, p.Max, p.Base)
	}
	return nil
}

// Delay returns the backoff delay before retry attempt n (0-based):
// min(Base * 2^attempt, Max). It never overflows; once the doubling
// passes Max the result saturates there no matter how large attempt
// grows.
func (p Policy) Delay(attempt int) (time.Duration, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	if attempt < 0 {
		return 0, errors.Errorf("%w: attempt %d must be >= 0", ErrInvalidArgument, attempt)
	}
	delay := p.Base
	for range attempt {
		if delay >= p.Max {
			return p.Max, nil
		}
		delay *= 2
	}
	return min(delay, p.Max), nil
}
