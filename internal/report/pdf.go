package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/jadenpxrk/treescope/internal/analyzer"
)

const (
	pdfPageWidth  = 210 // A4 width in mm
	pdfMargin     = 10  // Margin in mm
	pdfLineHeight = 5   // Line height in mm
	pdfFontSize   = 9
)

// WritePDF renders the report lines in a fixed-width font followed by a
// summary block and any notes. Core PDF fonts have no emoji, so PlainGlyphs
// mark directories and files.
func (r Report) WritePDF(w io.Writer) error {
	if r.Root == nil {
		return fmt.Errorf("no tree to export")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle("Directory structure of "+r.rootPath(), true)
	pdf.AddPage()

	// Core fonts are cp1252; names outside it degrade instead of failing.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width := float64(pdfPageWidth - 2*pdfMargin)

	pdf.SetFont("Helvetica", "B", pdfFontSize+2)
	pdf.MultiCell(width, pdfLineHeight+1, tr("Directory structure: "+r.rootPath()), "", "L", false)
	pdf.Ln(pdfLineHeight / 2)

	pdf.SetFont("Courier", "", pdfFontSize)
	for _, line := range r.Lines(PlainGlyphs) {
		pdf.MultiCell(width, pdfLineHeight, tr(line), "", "L", false)
	}

	sum := analyzer.Summarize(r.Root)
	pdf.Ln(pdfLineHeight)
	pdf.SetFont("Helvetica", "B", pdfFontSize+1)
	pdf.MultiCell(width, pdfLineHeight, "--- Summary ---", "", "L", false)
	pdf.SetFont("Helvetica", "", pdfFontSize)
	pdf.MultiCell(width, pdfLineHeight, fmt.Sprintf("Folders: %d\nFiles: %d\nTotal size: %s",
		sum.TotalFolders, sum.TotalFiles, FormatSize(sum.TotalSize)), "", "L", false)
	for _, note := range r.Notes {
		pdf.MultiCell(width, pdfLineHeight, tr(note), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}
