package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 277.0 // A4 landscape minus margins
	pdfRowHeight  = 6.0
	pdfHeadHeight = 8.0
)

// PDFExporter renders datasets as a landscape table that repeats its header on every page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the PDF document.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	widths := columnWidths(data)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	first := true
	pdf.SetHeaderFunc(func() {
		if first {
			first = false
			if data.Title != "" {
				pdf.SetFont("Arial", "B", 13)
				pdf.CellFormat(0, 9, tr(data.Title), "", 1, "L", false, 0, "")
			}
			pdf.SetFont("Arial", "", 9)
			for _, note := range data.Notes {
				pdf.MultiCell(0, 5, tr(note), "", "L", false)
			}
			pdf.Ln(3)
		}
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(225, 229, 235)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], pdfHeadHeight, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "", 8)
	pdf.SetFillColor(255, 246, 204)
	for _, row := range data.Rows {
		fill := data.HighlightColumn != "" && row[data.HighlightColumn] == "true"
		for i, value := range data.record(row) {
			pdf.CellFormat(widths[i], pdfRowHeight, fit(pdf, tr(value), widths[i]), "1", 0, "", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(data Dataset) []float64 {
	total := 0.0
	for i := range data.Headers {
		total += data.weight(i)
	}
	widths := make([]float64, len(data.Headers))
	for i := range data.Headers {
		widths[i] = pdfPageWidth * data.weight(i) / total
	}
	return widths
}

// fit truncates s with an ellipsis so it fits a cell of width w.
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	limit := w - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
