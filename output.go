package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jadenpxrk/treescope/internal/analyzer"
	"github.com/jadenpxrk/treescope/internal/language"
	"github.com/jadenpxrk/treescope/internal/report"
	"github.com/jadenpxrk/treescope/internal/session"
)

// maxLanguageLines bounds the language breakdown in the summary.
const maxLanguageLines = 8

// printTree writes the tree with box-drawing connectors.
func printTree(w io.Writer, root *analyzer.Entry) {
	if root == nil {
		return
	}
	var builder strings.Builder
	// Print root name separately, then start recursion for children
	builder.WriteString(fmt.Sprintf("%s (%d files, %s)\n", root.FullPath(), root.FileCount(), report.FormatSize(root.Size())))
	printNode(&builder, root.Children(), "")
	_, _ = io.WriteString(w, builder.String())
}

// printNode is a helper function for recursively printing tree nodes.
func printNode(builder *strings.Builder, children []*analyzer.Entry, prefix string) {
	for i, node := range children {
		connector := "├── "
		newPrefix := prefix + "│   "
		if i == len(children)-1 {
			connector = "└── "
			newPrefix = prefix + "    "
		}

		builder.WriteString(prefix)
		builder.WriteString(connector)
		builder.WriteString(node.Name())
		if node.IsDir() {
			builder.WriteString(fmt.Sprintf("/ (%d files)", node.FileCount()))
		} else {
			builder.WriteString(fmt.Sprintf(" (%s)", report.FormatSize(node.Size())))
		}
		builder.WriteString("\n")

		if node.IsDir() && len(node.Children()) > 0 {
			printNode(builder, node.Children(), newPrefix)
		}
	}
}

// printSummary writes the totals of a finished run and its language breakdown.
func printSummary(w io.Writer, res *session.Result, langs []language.Stat) {
	var b strings.Builder
	b.WriteString("\n--- Summary ---\n")
	b.WriteString(fmt.Sprintf("Folders: %s\n", humanize.Comma(int64(res.Summary.TotalFolders))))
	b.WriteString(fmt.Sprintf("Files: %s\n", humanize.Comma(int64(res.Summary.TotalFiles))))
	b.WriteString(fmt.Sprintf("Total size: %s (%s bytes)\n",
		report.FormatSize(res.Summary.TotalSize), humanize.Comma(res.Summary.TotalSize)))
	b.WriteString(fmt.Sprintf("Elapsed: %s\n", res.Duration.Round(time.Millisecond)))

	if len(langs) > 0 {
		b.WriteString("Languages:\n")
		for i, l := range langs {
			if i == maxLanguageLines {
				b.WriteString(fmt.Sprintf("  ... %d more\n", len(langs)-maxLanguageLines))
				break
			}
			b.WriteString(fmt.Sprintf("  %-16s %s files, %s\n", l.Language, humanize.Comma(int64(l.Files)), humanize.IBytes(uint64(l.Bytes))))
		}
	}
	_, _ = io.WriteString(w, b.String())
}

// languageNotes renders the breakdown as report notes.
func languageNotes(langs []language.Stat) []string {
	if len(langs) == 0 {
		return nil
	}
	notes := make([]string, 0, len(langs)+1)
	notes = append(notes, "Languages:")
	for _, l := range langs {
		notes = append(notes, fmt.Sprintf("  %s: %d files, %s", l.Language, l.Files, report.FormatSize(l.Bytes)))
	}
	return notes
}
