// Package retry applies one retry discipline to every outbound call the
// service makes: remote sheet reads and status writes, artifact uploads and
// mail sends.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/labstack/gommon/log"
)

// Policy bounds how often and how patiently an operation is retried.
// NewBackOff is called once per Do so concurrent callers never share
// backoff state.
type Policy struct {
	MaxAttempts int
	NewBackOff  func() backoff.BackOff
}

// Constant retries with a fixed pause between attempts.
func Constant(attempts int, pause time.Duration) Policy {
	return Policy{
		MaxAttempts: attempts,
		NewBackOff:  func() backoff.BackOff { return backoff.NewConstantBackOff(pause) },
	}
}

// Exponential retries with a jittered exponential pause starting at initial.
func Exponential(attempts int, initial time.Duration) Policy {
	return Policy{
		MaxAttempts: attempts,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// None runs the operation exactly once.
func None() Policy { return Constant(1, 0) }

// Permanent marks err as not worth retrying; Do returns it unwrapped.
func Permanent(err error) error { return backoff.Permanent(err) }

// Do runs op until it succeeds, the attempt budget is spent, op returns a
// Permanent error or ctx is done.  The last error is returned.  name only
// labels the log line written before each retry.
func (p Policy) Do(ctx context.Context, name string, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if p.NewBackOff != nil {
		b = p.NewBackOff()
	}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
	return backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		log.Warnf("retry: %s failed: %v; retrying in %s", name, err, wait)
	})
}
