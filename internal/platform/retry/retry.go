// Package retry implements bounded exponential backoff for transient upstream failures
package retry

import (
	"context"
	"math/rand"
	"time"

	perr "kilter/internal/platform/errors"
)

// Policy describes how an operation is retried
// the zero value never retries; use Default for the service-wide posture
type Policy struct {
	// MaxRetries is the number of re-attempts after the first call
	MaxRetries int
	// Base is the first backoff delay, doubled each retry
	Base time.Duration
	// Cap bounds the exponential delay before jitter
	Cap time.Duration
	// Jitter adds a uniform random delay in [0, Jitter) to each sleep
	Jitter time.Duration
	// Retryable decides whether an error is worth another attempt
	// nil means rate-limit errors only
	Retryable func(error) bool

	// test seams
	sleep func(context.Context, time.Duration) error
	randN func(int64) int64
}

// Default is the posture for classifier calls: four retries, 200ms doubling
// capped at 2s, with up to 120ms of jitter, retrying rate limits only
func Default() Policy {
	return Policy{
		MaxRetries: 4,
		Base:       200 * time.Millisecond,
		Cap:        2 * time.Second,
		Jitter:     120 * time.Millisecond,
	}
}

// WithSeams returns a copy with injected sleep and rand, for tests
func (p Policy) WithSeams(sleep func(context.Context, time.Duration) error, randN func(int64) int64) Policy {
	p.sleep = sleep
	p.randN = randN
	return p
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return perr.IsCode(err, perr.ErrorCodeTooManyRequests)
}

// Delay returns the backoff before retry attempt i (0-based), jitter excluded
func (p Policy) Delay(i int) time.Duration {
	d := p.Base << uint(i)
	if p.Cap > 0 && d > p.Cap {
		d = p.Cap
	}
	return d
}

// Do runs fn, sleeping and re-running while fn fails with a retryable error
// a non-retryable error or exhaustion returns the last error unchanged
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	randN := p.randN
	if randN == nil {
		randN = rand.Int63n
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !p.retryable(err) {
			return err
		}
		d := p.Delay(attempt)
		if p.Jitter > 0 {
			d += time.Duration(randN(int64(p.Jitter)))
		}
		if serr := sleep(ctx, d); serr != nil {
			return serr
		}
	}
}

// sleepCtx sleeps for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
