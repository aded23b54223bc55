package storage

import (
	"context"
	"sync"
	"time"
)

// HybridLock is a single mutual-exclusion primitive with two entry
// points over one shared state: a blocking acquire with a timeout and a
// context-aware acquire that suspends only the calling goroutine. At
// most one holder exists across both modes at a time.
//
// The underlying primitive is a capacity-1 semaphore. The held flag is
// auxiliary bookkeeping for diagnostics; Release always attempts to
// release the semaphore itself, so a diverged flag self-heals on the
// next Release.
type HybridLock struct {
	sem chan struct{}

	mu   sync.Mutex
	held bool
}

// NewHybridLock returns an unlocked HybridLock.
func NewHybridLock() *HybridLock {
	return &HybridLock{sem: make(chan struct{}, 1)}
}

// Acquire blocks the calling goroutine until the lock is available or
// the timeout expires. On timeout it returns a LockTimeoutError and
// leaves the lock state untouched.
func (l *HybridLock) Acquire(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		l.setHeld(true)
		return nil
	case <-timer.C:
		return &LockTimeoutError{Timeout: timeout}
	}
}

// AcquireContext suspends the calling goroutine until the lock is
// available or ctx is done. Cancellation while waiting leaves no
// trace in the lock state.
func (l *HybridLock) AcquireContext(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		l.setHeld(true)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire acquires the lock without waiting. It reports whether the
// lock was acquired.
func (l *HybridLock) TryAcquire() bool {
	select {
	case l.sem <- struct{}{}:
		l.setHeld(true)
		return true
	default:
		return false
	}
}

// Release releases the lock. It drains the underlying semaphore
// regardless of what the bookkeeping flag claims, so the two can never
// stay out of sync. Releasing a lock that is not held returns
// ErrNotLocked.
func (l *HybridLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false

	select {
	case <-l.sem:
		return nil
	default:
		return ErrNotLocked
	}
}

// Held reports the bookkeeping state. It exists for diagnostics and
// tests; correctness never depends on it.
func (l *HybridLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// With runs fn while holding the lock, waiting as long as ctx allows.
// The lock is released on every exit path, including a panic in fn.
func (l *HybridLock) With(ctx context.Context, fn func() error) error {
	if err := l.AcquireContext(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// WithTimeout runs fn while holding the lock, waiting up to timeout for
// acquisition. The lock is released on every exit path.
func (l *HybridLock) WithTimeout(timeout time.Duration, fn func() error) error {
	if err := l.Acquire(timeout); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

func (l *HybridLock) setHeld(v bool) {
	l.mu.Lock()
	l.held = v
	l.mu.Unlock()
}
