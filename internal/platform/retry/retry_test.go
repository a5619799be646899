package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "kilter/internal/platform/errors"
)

func TestDoRetriesRateLimitThenSucceeds(t *testing.T) {
	var slept []time.Duration
	p := Default().WithSeams(
		func(_ context.Context, d time.Duration) error { slept = append(slept, d); return nil },
		func(int64) int64 { return 0 },
	)

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls <= 2 {
			return perr.RateLimitedf("upstream says slow down")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("want 3 calls, got %d", calls)
	}
	want := []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}
	if len(slept) != len(want) {
		t.Fatalf("want %d sleeps, got %v", len(want), slept)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("sleep %d: want %v, got %v", i, want[i], slept[i])
		}
	}
}

func TestDelayDoublesAndCaps(t *testing.T) {
	p := Default()
	want := []time.Duration{
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		2 * time.Second,
		2 * time.Second,
	}
	for i, w := range want {
		if got := p.Delay(i); got != w {
			t.Fatalf("delay(%d): want %v, got %v", i, w, got)
		}
	}
}

func TestDoNonRetryableShortCircuits(t *testing.T) {
	p := Default().WithSeams(
		func(context.Context, time.Duration) error {
			t.Fatal("must not sleep for non-retryable errors")
			return nil
		},
		func(int64) int64 { return 0 },
	)

	boom := perr.Unavailablef("hard down")
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error { calls++; return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("want original error back, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("want exactly 1 call, got %d", calls)
	}
}

func TestDoExhaustionReturnsLastError(t *testing.T) {
	p := Default().WithSeams(
		func(context.Context, time.Duration) error { return nil },
		func(int64) int64 { return 0 },
	)

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return perr.RateLimitedf("attempt %d", calls)
	})
	if calls != 5 { // 1 initial + 4 retries
		t.Fatalf("want 5 calls, got %d", calls)
	}
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("want rate limit error, got %v", err)
	}
}

func TestDoStopsWhenContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Default().WithSeams(
		func(ctx context.Context, _ time.Duration) error { cancel(); return ctx.Err() },
		func(int64) int64 { return 0 },
	)

	err := p.Do(ctx, func(context.Context) error { return perr.RateLimitedf("again") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestJitterAddsBoundedDelay(t *testing.T) {
	var slept []time.Duration
	p := Default().WithSeams(
		func(_ context.Context, d time.Duration) error { slept = append(slept, d); return nil },
		func(n int64) int64 { return n - 1 }, // worst-case jitter
	)

	calls := 0
	_ = p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return perr.RateLimitedf("once")
		}
		return nil
	})

	if len(slept) != 1 {
		t.Fatalf("want 1 sleep, got %v", slept)
	}
	max := 200*time.Millisecond + 120*time.Millisecond
	if slept[0] >= max || slept[0] < 200*time.Millisecond {
		t.Fatalf("jittered sleep %v outside [200ms, %v)", slept[0], max)
	}
}
