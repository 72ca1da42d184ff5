//go:build windows

package analyzer

import (
	"io/fs"
	"strings"
	"syscall"
)

// IsHidden reports whether a directory entry carries the hidden attribute.
// Dot-prefixed names are treated as hidden too.
func IsHidden(d fs.DirEntry) bool {
	if strings.HasPrefix(d.Name(), ".") {
		return true
	}
	info, err := d.Info()
	if err != nil {
		return false
	}
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	return ok && attrs.FileAttributes&syscall.FILE_ATTRIBUTE_HIDDEN != 0
}
