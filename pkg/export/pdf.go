package export

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 277.0 // A4 landscape minus margins
	minColWidth = 18.0
)

// RenderPDF draws the table on A4 landscape pages with a repeated header row.
func RenderPDF(table Table) ([]byte, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	widths := columnWidths(table)

	pdf.SetHeaderFunc(func() {
		if table.Title != "" && pdf.PageNo() == 1 {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 9, table.Title, "", 1, "L", false, 0, "")
			if table.Subtitle != "" {
				pdf.SetFont("Arial", "", 10)
				pdf.CellFormat(0, 6, table.Subtitle, "", 1, "L", false, 0, "")
			}
			pdf.Ln(3)
		}
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, col := range table.Columns {
			pdf.CellFormat(widths[i], 7, col, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Arial", "", 9)
	for _, row := range table.Rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths splits the page width in proportion to the longest value per column.
func columnWidths(table Table) []float64 {
	longest := make([]int, len(table.Columns))
	for i, col := range table.Columns {
		longest[i] = utf8.RuneCountInString(col)
	}
	for _, row := range table.Rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > longest[i] {
				longest[i] = n
			}
		}
	}
	total := 0
	for _, n := range longest {
		total += n
	}
	widths := make([]float64, len(longest))
	if total == 0 {
		for i := range widths {
			widths[i] = pageWidth / float64(len(widths))
		}
		return widths
	}
	used := 0.0
	for i, n := range longest {
		widths[i] = pageWidth * float64(n) / float64(total)
		if widths[i] < minColWidth {
			widths[i] = minColWidth
		}
		used += widths[i]
	}
	if used > pageWidth {
		scale := pageWidth / used
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}
