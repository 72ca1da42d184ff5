//go:build !windows

package analyzer

import (
	"io/fs"
	"strings"
)

// IsHidden reports whether a directory entry is hidden. On Unix-like systems
// that is a leading dot.
func IsHidden(d fs.DirEntry) bool {
	return strings.HasPrefix(d.Name(), ".")
}
