// Package export renders a computed series as a downloadable file.
package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"energy-dashboard/internal/analytics/domain/series"
)

// BuildSeriesPDF renders a minimal PDF for a series.
func BuildSeriesPDF(s series.Series) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, s.Label)
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Bucket", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Consumption", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, point := range s.Points {
		pdf.CellFormat(60, 6, point.Bucket, "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, fmt.Sprintf("%.3f", point.Value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSeriesXLSX renders a minimal XLSX for a series.
func BuildSeriesXLSX(s series.Series) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "series"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", s.Label)
	_ = f.SetCellValue(sheet, "A3", "Bucket")
	_ = f.SetCellValue(sheet, "B3", "Consumption")
	for i, point := range s.Points {
		row := i + 4
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), point.Bucket)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), point.Value)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
