package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/nibzard/taskvault/internal/task"
)

const (
	// fileMode restricts the database and its backup to the owner.
	fileMode = 0o600

	// BackupSuffix is appended to the database path for the rotating
	// single-generation backup.
	BackupSuffix = ".bak"
)

// permStrategy selects how restrictive permissions are applied to the
// temporary file, resolved once per process.
type permStrategy int

const (
	permByHandle permStrategy = iota
	permByPath
	permNone
)

var (
	permOnce sync.Once
	permMode permStrategy
)

func permissionStrategy() permStrategy {
	permOnce.Do(func() {
		switch runtime.GOOS {
		case "windows", "plan9":
			permMode = permByPath
		default:
			permMode = permByHandle
		}
	})
	return permMode
}

// applyPermissions sets owner-only permissions on the temp file,
// preferring the open handle. Missing platform support degrades to a
// path-based call, then to no restriction; it never fails the save for
// that reason alone.
func applyPermissions(f *os.File, path string) error {
	switch permissionStrategy() {
	case permByHandle:
		err := f.Chmod(fileMode)
		if err == nil {
			return nil
		}
		if errors.Is(err, errors.ErrUnsupported) {
			return applyPathPermissions(path)
		}
		return err
	case permByPath:
		return applyPathPermissions(path)
	default:
		return nil
	}
}

func applyPathPermissions(path string) error {
	err := os.Chmod(path, fileMode)
	if err != nil && errors.Is(err, errors.ErrUnsupported) {
		return nil
	}
	return err
}

// writeFile serializes the full collection and atomically replaces the
// file at path: temp file in the same directory, fsync before close,
// optional single-generation backup, then rename. The temp file is
// removed on every failure path.
func writeFile(tasks []task.Task, path string, keepBackup bool) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	data = append(data, '\n')

	if err := ensureParentDir(path); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	if err := fillTemp(f, tmp, data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		// The data was fsynced already, but an unrenamed temp file is
		// useless: drop it and report.
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if keepBackup {
		if err := rotateBackup(path); err != nil {
			os.Remove(tmp)
			return err
		}
	}

	if err := withRetry(func() error { return os.Rename(tmp, path) }); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// fillTemp writes the serialized collection to the open temp file and
// flushes it to stable storage.
func fillTemp(f *os.File, tmp string, data []byte) error {
	if err := applyPermissions(f, tmp); err != nil {
		return fmt.Errorf("set permissions on temp file: %w", err)
	}
	err := withRetry(func() error {
		// Restart from a clean file so a retried partial write cannot
		// duplicate bytes.
		if _, err := f.Seek(0, 0); err != nil {
			return err
		}
		if err := f.Truncate(0); err != nil {
			return err
		}
		_, err := f.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	return nil
}

// rotateBackup copies the current generation to the .bak sibling so the
// backup always holds the immediately-prior contents. A missing target
// means there is nothing to back up.
func rotateBackup(path string) error {
	prev, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read previous generation: %w", err)
	}
	if err := os.WriteFile(path+BackupSuffix, prev, fileMode); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// ensureParentDir creates the parent directory of path, rejecting any
// ancestor that exists as a regular file.
func ensureParentDir(path string) error {
	parent := filepath.Dir(path)
	for dir := parent; ; {
		fi, err := os.Stat(dir)
		if err == nil && !fi.IsDir() {
			return fmt.Errorf("%q exists as a file, not a directory", dir)
		}
		next := filepath.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", parent, err)
	}
	return nil
}
