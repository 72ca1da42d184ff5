package report

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jadenpxrk/treescope/internal/analyzer"
)

// Glyphs are the markers placed before directory and file lines.
type Glyphs struct {
	Dir  string
	File string
}

var (
	// DefaultGlyphs are used by the text report.
	DefaultGlyphs = Glyphs{Dir: "📁", File: "📄"}
	// PlainGlyphs are used where emoji cannot be rendered (PDF core fonts).
	PlainGlyphs = Glyphs{Dir: "[D]", File: "[F]"}
)

const indentUnit = "  "

// Report is a built tree together with the root path it was analyzed from.
type Report struct {
	Root     *analyzer.Entry
	RootPath string
	// Notes are extra lines appended after the summary block in formats that
	// carry one (PDF).
	Notes []string
}

// New creates a report for root. An empty rootPath defaults to the root's
// own full path.
func New(root *analyzer.Entry, rootPath string) Report {
	return Report{Root: root, RootPath: rootPath}
}

func (r Report) rootPath() string {
	p := r.RootPath
	if p == "" && r.Root != nil {
		p = r.Root.FullPath()
	}
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.Clean(p)
}

// relativePath strips the analyzed root prefix and the separator after it.
// Entries outside the root fall back to their base name.
func relativePath(fullPath, rootPath string) string {
	sep := string(filepath.Separator)
	prefix := strings.TrimSuffix(rootPath, sep) + sep
	if strings.HasPrefix(fullPath, prefix) {
		return strings.TrimLeft(strings.TrimPrefix(fullPath, prefix), sep)
	}
	return filepath.Base(fullPath)
}

// Lines renders the tree depth-first in canonical order. The root line shows
// the full root path; every other line shows the path relative to the root,
// indented two spaces per level. Directories are annotated with their file
// count, files with their formatted size.
func (r Report) Lines(g Glyphs) []string {
	if r.Root == nil {
		return nil
	}
	rootPath := r.rootPath()

	var lines []string
	_ = analyzer.Walk(r.Root, func(e *analyzer.Entry, depth int) error {
		label := rootPath
		if depth > 0 {
			label = relativePath(e.FullPath(), rootPath)
		}

		indent := strings.Repeat(indentUnit, depth)
		if e.IsDir() {
			lines = append(lines, fmt.Sprintf("%s%s %s (%d files)", indent, g.Dir, label, e.FileCount()))
		} else {
			lines = append(lines, fmt.Sprintf("%s%s %s (%s)", indent, g.File, label, FormatSize(e.Size())))
		}
		return nil
	})
	return lines
}

// WriteText writes the text report, one line per entry, to w.
func (r Report) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range r.Lines(DefaultGlyphs) {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String returns the text report.
func (r Report) String() string {
	var b strings.Builder
	_ = r.WriteText(&b)
	return b.String()
}
