package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/nibzard/taskvault/internal/task"
)

// DefaultLockTimeout bounds lock acquisition when the caller supplies
// no budget of its own.
const DefaultLockTimeout = 10 * time.Second

// flockRetryDelay is how often the cross-process lock is re-polled
// while waiting.
const flockRetryDelay = 10 * time.Millisecond

// Option configures a Store.
type Option func(*Store)

// WithBackup controls whether each save keeps a single-generation
// backup of the prior contents. Enabled by default.
func WithBackup(keep bool) Option {
	return func(s *Store) { s.keepBackup = keep }
}

// WithFileLock controls the advisory cross-process lock on a .lock
// sibling of the database file. Enabled by default; the atomic rename
// remains the guarantee of file integrity either way.
func WithFileLock(enabled bool) Option {
	return func(s *Store) { s.fileLock = enabled }
}

// WithLockTimeout sets the acquisition budget used by the cross-process
// lock and by Update.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// Store owns a single JSON task database on disk. Every Load
// materializes a fresh collection; the file, not the in-memory value,
// is the source of truth.
type Store struct {
	path        string
	keepBackup  bool
	fileLock    bool
	lockTimeout time.Duration

	lock *HybridLock
	flk  *flock.Flock

	mu     sync.Mutex
	absent bool   // file known absent; skips the stat until a save succeeds
	saves  uint64 // bumped on every successful save
}

// New creates a Store for path. The path is cleaned and then checked
// for parent-directory traversal; cleaning first lets harmless interior
// ".." segments collapse away before the literal check.
func New(path string, opts ...Option) (*Store, error) {
	clean := filepath.Clean(path)
	if _, err := ValidatePath(clean); err != nil {
		return nil, err
	}
	s := &Store{
		path:        clean,
		keepBackup:  true,
		fileLock:    true,
		lockTimeout: DefaultLockTimeout,
		lock:        NewHybridLock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fileLock {
		s.flk = flock.New(clean + ".lock")
	}
	return s, nil
}

// Path returns the cleaned database path.
func (s *Store) Path() string {
	return s.path
}

// Load reads, parses, and validates the whole collection. A missing
// file yields an empty collection, and that outcome is remembered so
// repeated polling does not re-stat until a save succeeds. The returned
// slice is owned by the caller.
func (s *Store) Load(ctx context.Context) ([]task.Task, error) {
	s.mu.Lock()
	absent := s.absent
	gen := s.saves
	s.mu.Unlock()
	if absent {
		return []task.Task{}, nil
	}

	var tasks []task.Task
	err := s.withFileLock(ctx, func() error {
		loaded, missing, err := readFile(s.path)
		if err != nil {
			return err
		}
		if missing {
			s.markAbsent(gen)
			tasks = []task.Task{}
			return nil
		}
		tasks = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Save atomically replaces the database with the given collection.
func (s *Store) Save(ctx context.Context, tasks []task.Task) error {
	err := s.withFileLock(ctx, func() error {
		return writeFile(tasks, s.path, s.keepBackup)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.absent = false
	s.saves++
	s.mu.Unlock()
	return nil
}

// NextID returns the smallest free positive id in tasks.
func (s *Store) NextID(tasks []task.Task) int64 {
	return NextID(tasks)
}

// Update runs fn over a freshly loaded collection and saves its result,
// holding the store's lock for the full read-modify-write cycle so
// concurrent updaters are strictly serialized.
func (s *Store) Update(ctx context.Context, fn func([]task.Task) ([]task.Task, error)) error {
	return s.lock.With(ctx, func() error {
		tasks, err := s.Load(ctx)
		if err != nil {
			return err
		}
		out, err := fn(tasks)
		if err != nil {
			return err
		}
		return s.Save(ctx, out)
	})
}

// WithLock runs fn while holding the store's lock, waiting as long as
// ctx allows.
func (s *Store) WithLock(ctx context.Context, fn func() error) error {
	return s.lock.With(ctx, fn)
}

// WithLockTimeout runs fn while holding the store's lock, waiting up to
// timeout for acquisition.
func (s *Store) WithLockTimeout(timeout time.Duration, fn func() error) error {
	return s.lock.WithTimeout(timeout, fn)
}

// markAbsent caches a missing-file observation made at save generation
// gen. The observation is dropped if a save landed in the meantime, so
// a stale stat can never shadow a file that now exists.
func (s *Store) markAbsent(gen uint64) {
	s.mu.Lock()
	if s.saves == gen {
		s.absent = true
	}
	s.mu.Unlock()
}

// withFileLock holds the advisory cross-process lock around fn when
// enabled, bounded by the store's lock timeout.
func (s *Store) withFileLock(ctx context.Context, fn func() error) error {
	if s.flk == nil {
		return fn()
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := s.flk.TryLockContext(lockCtx, flockRetryDelay)
	if !locked {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return &LockTimeoutError{Timeout: s.lockTimeout}
		}
		if err == nil {
			err = lockCtx.Err()
		}
		return fmt.Errorf("lock %s: %w", s.flk.Path(), err)
	}
	defer s.flk.Unlock()
	return fn()
}
