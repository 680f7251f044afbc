package core

// MergeTables validates that every table in the batch shares the first
// table's column sequence and concatenates their rows in batch order,
// preserving each file's original row order. Validation is fail-fast
// and all-or-nothing: the first mismatching file rejects the whole
// batch and nothing is merged, including the files that matched.
func MergeTables(batch []BatchEntry) (*Table, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	schema := batch[0].Table.Columns
	total := batch[0].Table.RowCount()
	for _, entry := range batch[1:] {
		if !schemaEqual(schema, entry.Table.Columns) {
			return nil, &SchemaMismatchError{
				FileName: entry.FileName,
				Want:     schema,
				Got:      entry.Table.Columns,
			}
		}
		total += entry.Table.RowCount()
	}

	combined := &Table{
		Columns: append([]string(nil), schema...),
		Rows:    make([][]string, 0, total),
	}
	for _, entry := range batch {
		combined.Rows = append(combined.Rows, entry.Table.Rows...)
	}
	return combined, nil
}

// schemaEqual compares two column sequences by exact value and order.
// No trimming or case folding: "Name" and "name " are different columns.
func schemaEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
