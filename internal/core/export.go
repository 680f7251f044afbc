package core

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	// ExportFileName is the suggested download name for analysis results.
	ExportFileName = "suspicious_orders_by_address.xlsx"

	// ExportContentType is the Office Open XML spreadsheet MIME type.
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	exportSheet = "Sheet1"
)

// ExportXLSX serializes a table as a single-sheet workbook: the header
// row first, then one row per record, no index column. Cell content
// round-trips exactly; all values are written as strings.
func ExportXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheetRow(f, 1, t.Columns); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	for i, row := range t.Rows {
		if err := writeSheetRow(f, i+2, row); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheetRow(f *excelize.File, n int, cells []string) error {
	anchor, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return f.SetSheetRow(exportSheet, anchor, &row)
}
