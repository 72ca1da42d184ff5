// Package analyzer builds an in-memory tree of a directory, applying folder and
// file exclusion rules and aggregating file counts and sizes per directory.
package analyzer

import (
	"path/filepath"
	"sort"
	"strings"
)

// Kind distinguishes directories from files.
type Kind int

const (
	KindDirectory Kind = iota
	KindFile
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Entry is one node of an analyzed tree. Entries are immutable once built:
// a directory's size and file count are derived from its children when the
// directory is created and cannot be set independently.
type Entry struct {
	name      string
	fullPath  string
	kind      Kind
	size      int64
	extension string
	fileCount int
	children  []*Entry
}

// NewFile creates a file entry. The extension is derived from name.
func NewFile(fullPath string, size int64) *Entry {
	name := filepath.Base(fullPath)
	return &Entry{
		name:      name,
		fullPath:  fullPath,
		kind:      KindFile,
		size:      size,
		extension: strings.ToLower(filepath.Ext(name)),
		fileCount: 1,
	}
}

// NewDirectory creates a directory entry owning children. Children are sorted
// into canonical order and the directory's size and file count are summed
// from them.
func NewDirectory(fullPath string, children ...*Entry) *Entry {
	dir := &Entry{
		name:     filepath.Base(fullPath),
		fullPath: fullPath,
		kind:     KindDirectory,
		children: make([]*Entry, 0, len(children)),
	}
	for _, child := range children {
		if child == nil {
			continue
		}
		dir.children = append(dir.children, child)
		dir.size += child.size
		dir.fileCount += child.fileCount
	}
	SortEntries(dir.children)
	return dir
}

func (e *Entry) Name() string      { return e.name }
func (e *Entry) FullPath() string  { return e.fullPath }
func (e *Entry) Kind() Kind        { return e.kind }
func (e *Entry) IsDir() bool       { return e.kind == KindDirectory }
func (e *Entry) Size() int64       { return e.size }
func (e *Entry) Extension() string { return e.extension }

// FileCount is the number of file descendants of a directory, or 1 for a file.
func (e *Entry) FileCount() int { return e.fileCount }

// Children returns the entry's children in canonical order. The returned
// slice is shared and must not be modified.
func (e *Entry) Children() []*Entry { return e.children }

// Less reports whether a sorts before b in canonical order: directories
// first, then case-insensitive name, with the raw name as a tie-breaker so
// the order is total.
func Less(a, b *Entry) bool {
	if a.IsDir() != b.IsDir() {
		return a.IsDir()
	}
	la, lb := strings.ToLower(a.name), strings.ToLower(b.name)
	if la != lb {
		return la < lb
	}
	return a.name < b.name
}

// SortEntries sorts entries in place into canonical order.
func SortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Less(entries[i], entries[j])
	})
}

// WalkFunc is called for every entry visited by Walk. Returning a non-nil
// error stops the walk and is returned by Walk.
type WalkFunc func(e *Entry, depth int) error

// Walk visits root and its descendants depth-first in pre-order, children in
// canonical order. The root has depth 0.
func Walk(root *Entry, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	return walk(root, 0, fn)
}

func walk(e *Entry, depth int, fn WalkFunc) error {
	if err := fn(e, depth); err != nil {
		return err
	}
	for _, child := range e.children {
		if err := walk(child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}
