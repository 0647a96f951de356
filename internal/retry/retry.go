// Package retry wraps fallible operations with bounded retry on transient
// connection resets. It deliberately covers only that narrow failure class:
// anything else propagates to the caller on the first attempt.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"syscall"
	"time"
)

// DefaultDelay is the fixed wait between attempts. No backoff, no jitter.
const DefaultDelay = time.Second

// TransientError marks a failure as a retryable connection reset.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err so that IsTransient reports true for it.
// A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is classified as a retryable connection
// reset, either via an explicit TransientError wrapper or a raw ECONNRESET
// somewhere in the chain.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET)
}

// Policy retries an operation up to MaxAttempts times, waiting Delay between
// attempts. Only transient failures are retried; all others propagate
// immediately. After the final attempt the last failure propagates as-is.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// NewPolicy returns a Policy with the given attempt budget and the default
// fixed delay.
func NewPolicy(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts, Delay: DefaultDelay}
}

// Do runs op until it succeeds, fails non-transiently, or exhausts the
// attempt budget. label identifies the operation in retry logs. Waiting
// between attempts respects ctx cancellation.
func (p Policy) Do(ctx context.Context, label string, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		log.Printf("WARNING: %s failed (attempt %d/%d), retrying: %v", label, attempt, attempts, lastErr)
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", label, ctx.Err())
		}
	}
	return lastErr
}
