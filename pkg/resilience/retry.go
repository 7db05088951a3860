// Package resilience retries calls to the external sinks (the corpus
// database, Kafka) with capped, fully jittered exponential backoff.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Policy bounds a retry loop. Zero fields take the DefaultPolicy values.
type Policy struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
}

var DefaultPolicy = Policy{Attempts: 3, Base: 100 * time.Millisecond, Cap: 5 * time.Second}

func (p Policy) normalize() Policy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultPolicy.Attempts
	}
	if p.Base <= 0 {
		p.Base = DefaultPolicy.Base
	}
	if p.Cap <= 0 {
		p.Cap = max(DefaultPolicy.Cap, p.Base)
	}
	return p
}

// Delays yields the wait before each retry: a uniform draw from
// [0, min(Cap, Base*2^n)] for the n-th retry. It yields Attempts-1 values.
func (p Policy) Delays() iter.Seq[time.Duration] {
	p = p.normalize()
	return func(yield func(time.Duration) bool) {
		ceiling := p.Base
		for range p.Attempts - 1 {
			if !yield(rand.N(ceiling + 1)) {
				return
			}
			ceiling = min(ceiling*2, p.Cap)
		}
	}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func isPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Do calls fn until it succeeds, returns a permanent error, the policy runs
// out of attempts or ctx is done.
func Do(ctx context.Context, op string, p Policy, fn func(context.Context) error) error {
	log := slog.Default().With("component", "retry", "operation", op)
	attempt := 1
	err := fn(ctx)
	for delay := range p.Delays() {
		if err == nil || isPermanent(err) {
			break
		}
		log.Warn("attempt failed", "attempt", attempt, "error", err, "retry_in", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: giving up after %d attempts: %w", op, attempt, ctx.Err())
		}
		attempt++
		err = fn(ctx)
	}
	switch {
	case err == nil:
		if attempt > 1 {
			log.Info("succeeded after retry", "attempts", attempt)
		}
		return nil
	case isPermanent(err):
		var perm permanentError
		if errors.As(err, &perm) {
			err = perm.err
		}
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %d attempts failed: %w", op, attempt, err)
	}
}
