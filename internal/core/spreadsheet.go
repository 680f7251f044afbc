package core

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// loadWorkbook parses the first sheet of a workbook into a Table. Cell
// values arrive as the formatted strings the sheet displays, which
// keeps dates and numbers in whatever shape the exporting tool wrote
// them.
func loadWorkbook(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("empty file: workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	table, err := tableFromRows(rows)
	if err != nil {
		return nil, err
	}
	return padRows(table)
}

// padRows normalizes data rows to the header width. Workbook readers
// drop trailing empty cells, so short rows are expected and padded with
// empty strings. A row wider than the header means the sheet has stray
// data past the last column and is rejected.
func padRows(t *Table) (*Table, error) {
	width := len(t.Columns)
	for i, row := range t.Rows {
		switch {
		case len(row) == width:
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			t.Rows[i] = padded
		default:
			return nil, fmt.Errorf("row %d is wider than the header (%d cells vs %d columns)", i+1, len(row), width)
		}
	}
	return t, nil
}
