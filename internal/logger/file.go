package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// OpenFile opens (or creates) path for appending and returns a logger writing
// to it, and to every writer in also, together with the file's Close function.
func OpenFile(path string, level Level, also ...io.Writer) (Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	if len(also) == 0 {
		return New(level, f), f.Close, nil
	}
	return New(level, io.MultiWriter(append(also, f)...)), f.Close, nil
}
