package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

// utf8BOM is the byte order mark Excel prepends to UTF-8 CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadTable parses one uploaded file into a Table, dispatching on the
// file extension. CSV files go through text decoding first; .xlsx and
// .xls go to the workbook reader. Unsupported extensions return
// ErrUnsupportedFormat so the caller can skip the file instead of
// failing the whole batch.
func LoadTable(fileName string, data []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return loadCSV(data)
	case ".xlsx", ".xls":
		return loadWorkbook(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func loadCSV(data []byte) (*Table, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	records, err := parseCSV(text)
	if err != nil {
		return nil, err
	}
	return tableFromRows(records)
}

// decodeText converts raw CSV bytes to UTF-8. Korean order exports are
// usually CP949, so that encoding is tried first; streams that carry a
// UTF-8 byte order mark, or that fail the CP949 decode, fall back to
// UTF-8. Bytes valid under neither encoding are rejected.
func decodeText(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		data = stripBOM(data)
		if !utf8.Valid(data) {
			return nil, ErrBadEncoding
		}
		return data, nil
	}
	if decoded, ok := decodeCP949(data); ok {
		return decoded, nil
	}
	if utf8.Valid(data) {
		return data, nil
	}
	return nil, ErrBadEncoding
}

// decodeCP949 attempts a strict CP949 decode. The x/text decoder never
// fails outright; it substitutes U+FFFD for invalid sequences, so the
// output is scanned for the replacement rune to detect a bad decode.
func decodeCP949(data []byte) ([]byte, bool) {
	decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil || bytes.ContainsRune(decoded, utf8.RuneError) {
		return nil, false
	}
	return decoded, true
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(data []byte) []byte {
	if bytes.HasPrefix(data, utf8BOM) {
		return data[len(utf8BOM):]
	}
	return data
}

// parseCSV reads all records from decoded CSV text. The field count of
// the first record is enforced on every following record, since a Table
// requires each row to match the header width exactly. LazyQuotes
// tolerates the stray quote characters common in exported address
// fields.
func parseCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return records, nil
}

// tableFromRows builds a Table from raw rows, using the first non-empty
// row as the header. Fully empty rows are dropped the way spreadsheet
// tools drop blank lines in exports.
func tableFromRows(rows [][]string) (*Table, error) {
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		if !isEmptyRow(row) {
			kept = append(kept, row)
		}
	}
	if len(kept) == 0 {
		return nil, errors.New("empty file: no rows found")
	}
	return &Table{Columns: kept[0], Rows: kept[1:]}, nil
}

// isEmptyRow reports whether every cell in the row is empty or
// whitespace-only.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
