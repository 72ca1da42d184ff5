package analyzer

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrInvalidPath reports a root that does not exist or is not a directory.
	ErrInvalidPath = errors.New("invalid path")
	// ErrRootAccessDenied reports a root directory that cannot be enumerated.
	ErrRootAccessDenied = errors.New("root access denied")
	// ErrCancelled reports a build stopped by its context. It is not a BuildError.
	ErrCancelled = errors.New("analysis cancelled")
)

// BuildError is a fatal failure while reading the analysis root.
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building tree for %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission)
}

// ValidateRoot checks that path exists and is a directory.
func ValidateRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPath, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, path)
	}
	return nil
}
