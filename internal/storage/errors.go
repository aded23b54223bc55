package storage

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotLocked is returned by Release when the lock was not held.
var ErrNotLocked = errors.New("lock is not held")

// PathTraversalError reports a path rejected for containing a
// parent-directory component.
type PathTraversalError struct {
	Path string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("path %q contains a parent-directory component", e.Path)
}

// ValidationError reports a malformed record encountered during load.
// Index is the position of the offending element in the stored array,
// or -1 for collection-level failures.
type ValidationError struct {
	Index int
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	switch {
	case e.Index < 0 && e.Field == "":
		return e.Err.Error()
	case e.Index < 0:
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	case e.Field == "":
		return fmt.Sprintf("record %d: %s", e.Index, e.Err)
	default:
		return fmt.Sprintf("record %d: %s: %s", e.Index, e.Field, e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SizeLimitError reports a database file that is too large or too
// deeply nested to parse safely.
type SizeLimitError struct {
	Path   string
	Reason string
}

func (e *SizeLimitError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// SymlinkError reports a database path that resolves to a symbolic link.
type SymlinkError struct {
	Path string
}

func (e *SymlinkError) Error() string {
	return fmt.Sprintf("%s is a symbolic link, refusing to follow it", e.Path)
}

// LockTimeoutError reports a failed lock acquisition within the
// caller's budget. The caller may retry.
type LockTimeoutError struct {
	Timeout time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("could not acquire lock within %s", e.Timeout)
}
