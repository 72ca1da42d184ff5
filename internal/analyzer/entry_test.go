package analyzer

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDirectory_Aggregates(t *testing.T) {
	root := filepath.FromSlash("/proj")
	sub := NewDirectory(filepath.Join(root, "sub"),
		NewFile(filepath.Join(root, "sub", "b.txt"), 2048),
	)
	tree := NewDirectory(root,
		NewFile(filepath.Join(root, "a.txt"), 10),
		nil,
		sub,
	)

	assert.Equal(t, 2, tree.FileCount())
	assert.Equal(t, int64(2058), tree.Size())
	require.Len(t, tree.Children(), 2)
	assert.Equal(t, "sub", tree.Children()[0].Name(), "directories sort first")
	assert.Equal(t, "a.txt", tree.Children()[1].Name())
	assert.Equal(t, ".txt", tree.Children()[1].Extension())
	assert.Empty(t, tree.Extension())
}

func TestNewFile_LowercaseExtension(t *testing.T) {
	f := NewFile(filepath.FromSlash("/x/Photo.JPG"), 1)
	assert.Equal(t, ".jpg", f.Extension())
	assert.Equal(t, 1, f.FileCount())
	assert.Equal(t, KindFile, f.Kind())
	assert.Empty(t, f.Children())
}

func TestSortEntries_CanonicalOrder(t *testing.T) {
	base := filepath.FromSlash("/r")
	entries := []*Entry{
		NewFile(filepath.Join(base, "c.txt"), 1),
		NewDirectory(filepath.Join(base, "b")),
		NewFile(filepath.Join(base, "B.txt"), 1),
		NewDirectory(filepath.Join(base, "A")),
		NewDirectory(filepath.Join(base, "z")),
	}
	SortEntries(entries)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"A", "b", "z", "B.txt", "c.txt"}, names)
}

func TestWalk_PreOrderWithDepth(t *testing.T) {
	root := filepath.FromSlash("/r")
	tree := NewDirectory(root,
		NewFile(filepath.Join(root, "z.txt"), 1),
		NewDirectory(filepath.Join(root, "d"), NewFile(filepath.Join(root, "d", "f.txt"), 1)),
	)

	var visited []string
	var depths []int
	err := Walk(tree, func(e *Entry, depth int) error {
		visited = append(visited, e.Name())
		depths = append(depths, depth)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"r", "d", "f.txt", "z.txt"}, visited)
	assert.Equal(t, []int{0, 1, 2, 1}, depths)

	stop := errors.New("stop")
	count := 0
	err = Walk(tree, func(*Entry, int) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, count)

	assert.NoError(t, Walk(nil, func(*Entry, int) error { return stop }))
}

func TestSummarize(t *testing.T) {
	root := filepath.FromSlash("/r")
	tree := NewDirectory(root,
		NewDirectory(filepath.Join(root, "a"),
			NewDirectory(filepath.Join(root, "a", "b"), NewFile(filepath.Join(root, "a", "b", "x"), 7)),
		),
		NewFile(filepath.Join(root, "y"), 3),
	)

	assert.Equal(t, Summary{TotalFiles: 2, TotalFolders: 2, TotalSize: 10}, Summarize(tree))
	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, Summary{}, Summarize(NewDirectory(root)))
}
