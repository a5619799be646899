// Package limiter provides a small counting semaphore for bounding upstream calls
package limiter

import (
	"context"
	"sync"
)

// Limiter bounds concurrent holders of a shared resource
// waiters are woken strictly in arrival order; a release hands its permit
// to the head of the queue, so newcomers cannot jump ahead of parked waiters
type Limiter struct {
	mu      sync.Mutex
	cap     int
	held    int
	waiters []chan struct{}
}

// New builds a Limiter with n permits, n < 1 is treated as 1
func New(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{cap: n}
}

// Cap returns the permit count
func (l *Limiter) Cap() int { return l.cap }

// InFlight returns the number of currently held permits
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Waiting returns the number of parked waiters
func (l *Limiter) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiters)
}

// Acquire blocks until a permit is available or ctx is done
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	if l.held < l.cap && len(l.waiters) == 0 {
		l.held++
		l.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	l.waiters = append(l.waiters, ready)
	l.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		for i, w := range l.waiters {
			if w == ready {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				l.mu.Unlock()
				return ctx.Err()
			}
		}
		l.mu.Unlock()
		// a release handed us the permit while ctx fired; give it back
		l.Release()
		return ctx.Err()
	}
}

// TryAcquire grabs a permit without blocking
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held < l.cap && len(l.waiters) == 0 {
		l.held++
		return true
	}
	return false
}

// Release returns a permit, panics on release without acquire
// when waiters are parked the permit transfers directly to the head
func (l *Limiter) Release() {
	l.mu.Lock()
	if l.held == 0 {
		l.mu.Unlock()
		panic("limiter: release without acquire")
	}
	if len(l.waiters) > 0 {
		head := l.waiters[0]
		l.waiters = l.waiters[1:]
		l.mu.Unlock()
		close(head)
		return
	}
	l.held--
	l.mu.Unlock()
}

// Do runs fn while holding a permit, releasing on every path
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}
