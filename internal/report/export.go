package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/jadenpxrk/treescope/internal/filelock"
)

// ErrExport wraps every failure to write a report destination. The tree is
// untouched by a failed export, so retrying elsewhere is always safe.
var ErrExport = errors.New("export failed")

// Write encodes the report to w in format f.
func (r Report) Write(w io.Writer, f Format) error {
	switch f {
	case FormatText, "":
		return r.WriteText(w)
	case FormatYAML:
		return r.WriteYAML(w)
	case FormatPDF:
		return r.WritePDF(w)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// Export writes the report to path. The file is replaced atomically, so a
// failed export never leaves a truncated report behind.
func Export(path string, f Format, r Report) error {
	if r.Root == nil {
		return fmt.Errorf("%w: no analysis result to export", ErrExport)
	}
	if err := filelock.AtomicWrite(path, func(w io.Writer) error {
		return r.Write(w, f)
	}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExport, path, err)
	}
	return nil
}
