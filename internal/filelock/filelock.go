// Package filelock writes settings and report files atomically, optionally
// under an advisory lock shared with other treescope processes.
package filelock

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockPath returns the lock file used to guard path.
func LockPath(path string) string {
	return path + ".lock"
}

// AtomicWrite streams content produced by write into a temp file next to path
// and renames it into place. Readers never observe a partially written file,
// and on failure any existing file at path is left untouched.
func AtomicWrite(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tmp = nil
	return nil
}

// LockAndWrite acquires the lock for path, performs an AtomicWrite and
// releases the lock.
func LockAndWrite(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	lock := flock.New(LockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	defer lock.Unlock()

	return AtomicWrite(path, write)
}

// WriteBytes is LockAndWrite for an in-memory payload.
func WriteBytes(path string, data []byte) error {
	return LockAndWrite(path, func(w io.Writer) error {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write to temp file: %w", err)
		}
		return nil
	})
}
