package export

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin      = 10.0
	pdfRowHeight   = 7.0
	pdfMaxPortrait = 6
)

// PDF lays the dataset out as a bordered table, switching to landscape for wide tables.
type PDF struct{}

func NewPDF() *PDF {
	return &PDF{}
}

func (PDF) Extension() string { return "pdf" }

func (p PDF) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	orientation := "P"
	if len(data.Headers) > pdfMaxPortrait {
		orientation = "L"
	}
	doc := gofpdf.New(orientation, "mm", "A4", "")
	doc.SetMargins(pdfMargin, 15, pdfMargin)
	doc.SetAutoPageBreak(true, 15)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFooterFunc(func() {
		doc.SetY(-12)
		doc.SetFont("Arial", "I", 8)
		doc.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AliasNbPages("")

	pageWidth, _ := doc.GetPageSize()
	widths := columnWidths(data, pageWidth-2*pdfMargin)

	header := func() {
		doc.SetFont("Arial", "B", 9)
		doc.SetFillColor(230, 230, 230)
		for i, h := range data.Headers {
			doc.CellFormat(widths[i], pdfRowHeight+1, tr(h), "1", 0, "C", true, 0, "")
		}
		doc.Ln(-1)
		doc.SetFont("Arial", "", 9)
	}

	doc.AddPage()
	if data.Title != "" {
		doc.SetFont("Arial", "B", 14)
		doc.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
	}
	if !data.GeneratedAt.IsZero() {
		doc.SetFont("Arial", "", 8)
		doc.CellFormat(0, 5, "Generated "+data.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "R", false, 0, "")
	}
	doc.Ln(3)
	header()

	_, pageHeight := doc.GetPageSize()
	for _, row := range data.Rows {
		if doc.GetY()+pdfRowHeight > pageHeight-15 {
			doc.AddPage()
			header()
		}
		for i := range data.Headers {
			align := "L"
			if data.NumericColumns[i] {
				align = "R"
			}
			doc.CellFormat(widths[i], pdfRowHeight, tr(data.cell(row, i)), "1", 0, align, false, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths splits usable width in proportion to the longest cell of each column, with a floor.
func columnWidths(data Dataset, usable float64) []float64 {
	longest := make([]int, len(data.Headers))
	for i, h := range data.Headers {
		longest[i] = utf8.RuneCountInString(h)
	}
	for _, row := range data.Rows {
		for i := range data.Headers {
			if n := utf8.RuneCountInString(data.cell(row, i)); n > longest[i] {
				longest[i] = n
			}
		}
	}
	total := 0
	for i, n := range longest {
		if n < 4 {
			longest[i] = 4
		}
		if n > 40 {
			longest[i] = 40
		}
		total += longest[i]
	}
	widths := make([]float64, len(longest))
	for i, n := range longest {
		widths[i] = usable * float64(n) / float64(total)
	}
	return widths
}
