// Package export renders composed SRS documents to PDF.
//
// Rendering depends on a unicode TTF glyph resource being available on disk;
// its absence is a configuration error surfaced at construction time, never
// a core-logic failure of the orchestration engine.
package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/BTreeMap/SpecPipe/internal/models"
	"github.com/go-pdf/fpdf"
)

const (
	fontFamily   = "SpecPipe"
	titleSize    = 16.0
	headerSize   = 13.0
	bodySize     = 11.0
	lineHeight   = 6.0
	documentName = "Software Requirements Specification"
)

// PDFRenderer renders SRS documents using a configured unicode font.
type PDFRenderer struct {
	fontPath string
}

// NewPDFRenderer validates the glyph resource and returns a renderer. The
// transcripts carry user text in several scripts, so a unicode-capable TTF
// is required; the built-in core fonts only cover latin-1.
func NewPDFRenderer(fontPath string) (*PDFRenderer, error) {
	if fontPath == "" {
		return nil, fmt.Errorf("%w: font path not configured", models.ErrExportFailed)
	}
	if _, err := os.Stat(fontPath); err != nil {
		slog.Error("export.NewPDFRenderer: font file not available", "fontPath", fontPath, "error", err)
		return nil, fmt.Errorf("%w: font file %s: %v", models.ErrExportFailed, fontPath, err)
	}
	slog.Debug("export.NewPDFRenderer: renderer initialized", "fontPath", fontPath)
	return &PDFRenderer{fontPath: fontPath}, nil
}

// Render produces the PDF bytes for a composed document.
func (r *PDFRenderer) Render(doc *models.SRSDocument) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", models.ErrExportFailed)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(documentName, true)
	pdf.AddUTF8Font(fontFamily, "", r.fontPath)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont(fontFamily, "", titleSize)
	pdf.MultiCell(0, lineHeight+2, documentName, "", "C", false)
	pdf.Ln(lineHeight)

	for i, section := range doc.Sections() {
		pdf.SetFont(fontFamily, "", headerSize)
		pdf.MultiCell(0, lineHeight, fmt.Sprintf("%d. %s", i+1, section.Title), "", "L", false)
		pdf.SetFont(fontFamily, "", bodySize)
		body := section.Body
		if body == "" {
			body = "-"
		}
		pdf.MultiCell(0, lineHeight, body, "", "L", false)
		pdf.Ln(lineHeight / 2)
	}

	if pdf.Err() {
		slog.Error("export.Render: pdf generation failed", "error", pdf.Error())
		return nil, fmt.Errorf("%w: %v", models.ErrExportFailed, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		slog.Error("export.Render: pdf output failed", "error", err)
		return nil, fmt.Errorf("%w: %v", models.ErrExportFailed, err)
	}

	slog.Info("export.Render: document rendered", "bytes", buf.Len())
	return buf.Bytes(), nil
}
