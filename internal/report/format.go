// Package report renders an analyzed tree as an indented text report, a YAML
// document or a PDF, and exports it to a file.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "text"/"txt", "yaml"/"yml" and "pdf", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt", "":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, yaml or pdf)", s)
	}
}

// FormatFromPath picks a format from a destination file extension, falling
// back to text.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".pdf":
		return FormatPDF
	default:
		return FormatText
	}
}

// DefaultFileName is the suggested export file name for a root directory.
func DefaultFileName(rootPath string) string {
	return filepath.Base(filepath.Clean(rootPath)) + "_structure.txt"
}

var sizeUnits = []string{"KB", "MB", "GB"}

// FormatSize renders a byte count with 1024-based units. Counts below 1 KB
// are shown as whole bytes; larger counts use two decimals, with GB as the
// largest unit.
func FormatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	v := float64(bytes) / 1024
	for i, unit := range sizeUnits {
		// 1023.995 and above would print as "1024.00", so promote it.
		if v < 1023.995 || i == len(sizeUnits)-1 {
			return fmt.Sprintf("%.2f %s", v, unit)
		}
		v /= 1024
	}
	return ""
}
