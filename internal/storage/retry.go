package storage

import (
	"errors"
	"syscall"
	"time"
)

const (
	retryAttempts = 3
	retryBackoff  = 10 * time.Millisecond
)

// isTransient reports whether err belongs to the
// resource-temporarily-unavailable class worth retrying. Permission and
// space errors are deliberately excluded.
func isTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EINTR) ||
		errors.Is(err, syscall.EBUSY)
}

// withRetry runs op, retrying transient errors a bounded number of
// times with a short growing backoff. Non-transient errors surface
// immediately.
func withRetry(op func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(retryBackoff * time.Duration(attempt))
		}
		err = op()
		if err == nil || !isTransient(err) {
			return err
		}
	}
	return err
}
