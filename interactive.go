package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"

	"github.com/jadenpxrk/treescope/internal/analyzer"
)

// directoryCandidates lists root and the directories below it that an
// analysis would enter: hidden and folder-excluded directories are skipped.
func directoryCandidates(root string, cfg analyzer.FilterConfig) ([]string, error) {
	candidates := []string{root}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are simply not offered.
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if path == root || !d.IsDir() {
			return nil
		}
		if analyzer.IsHidden(d) || analyzer.ShouldExcludeFolder(d.Name(), cfg) {
			return fs.SkipDir
		}
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning for directories: %w", err)
	}
	return candidates, nil
}

// pickDirectory lets the user choose the analysis root with a fuzzy finder.
// It returns "" when the selection is aborted.
func pickDirectory(root string, cfg analyzer.FilterConfig) (string, error) {
	candidates, err := directoryCandidates(root, cfg)
	if err != nil {
		return "", err
	}

	idx, err := fuzzyfinder.Find(
		candidates,
		func(i int) string {
			return candidates[i]
		},
		fuzzyfinder.WithPromptString("Directory> "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return "Select the directory to analyze and press Enter."
			}
			return previewDirectory(candidates[i], h)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) { // User pressed Esc or Ctrl+C
			fmt.Fprintln(os.Stderr, "Interactive selection aborted.")
			return "", nil
		}
		return "", fmt.Errorf("fuzzy finder error: %w", err)
	}
	return candidates[idx], nil
}

// previewDirectory lists up to limit entries of path, directories first.
func previewDirectory(path string, limit int) string {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Sprintf("Path: %s\nError reading directory: %v", path, err)
	}

	var dirs, files []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name()+"/")
		} else {
			files = append(files, e.Name())
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Path: %s\n%d folders, %d files\n\n", path, len(dirs), len(files))
	lines := append(dirs, files...)
	for i, line := range lines {
		if limit > 0 && i >= limit-4 {
			fmt.Fprintf(&b, "... %d more", len(lines)-i)
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
