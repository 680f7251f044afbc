package core

import "sort"

// buyerStats accumulates the distinct dates and addresses seen for one
// buyer key across the merged table.
type buyerStats struct {
	dates     map[string]struct{}
	addresses map[string]struct{}
}

// Analyze flags buyers whose orders span more than one distinct date
// AND more than one distinct shipping address, and returns their
// complete order history.
//
// Rows whose buyer cell is empty are excluded up front and counted in
// the report as a diagnostic. The remaining rows are grouped by the raw
// buyer value; grouping and distinctness use exact string equality with
// no normalization, so "Jane Doe" and "jane doe" are different buyers.
// That keeps the results faithful to the source data at the cost of
// missing spelling variants of the same person.
//
// The result table holds every kept row of every flagged buyer, sorted
// ascending by (buyer, date) with ties left in merged-table order. An
// empty result is not an error; it means no findings.
func Analyze(combined *Table, cols AnalysisColumns) (*Table, *AnalysisReport, error) {
	buyer, date, addr, err := resolveColumns(combined, cols)
	if err != nil {
		return nil, nil, err
	}

	kept := make([][]string, 0, len(combined.Rows))
	excluded := 0
	for _, row := range combined.Rows {
		if row[buyer] == "" {
			excluded++
			continue
		}
		kept = append(kept, row)
	}

	stats := make(map[string]*buyerStats)
	for _, row := range kept {
		s := stats[row[buyer]]
		if s == nil {
			s = &buyerStats{
				dates:     make(map[string]struct{}),
				addresses: make(map[string]struct{}),
			}
			stats[row[buyer]] = s
		}
		s.dates[row[date]] = struct{}{}
		s.addresses[row[addr]] = struct{}{}
	}

	suspicious := make(map[string]bool, len(stats))
	names := make([]string, 0)
	for key, s := range stats {
		if len(s.dates) > 1 && len(s.addresses) > 1 {
			suspicious[key] = true
			names = append(names, key)
		}
	}
	sort.Strings(names)

	result := &Table{Columns: append([]string(nil), combined.Columns...)}
	for _, row := range kept {
		if suspicious[row[buyer]] {
			result.Rows = append(result.Rows, row)
		}
	}
	sort.SliceStable(result.Rows, func(i, j int) bool {
		a, b := result.Rows[i], result.Rows[j]
		if a[buyer] != b[buyer] {
			return a[buyer] < b[buyer]
		}
		return a[date] < b[date]
	})

	report := &AnalysisReport{
		Columns:          cols,
		TotalRows:        len(combined.Rows),
		ExcludedRows:     excluded,
		BuyerCount:       len(stats),
		SuspiciousCount:  len(names),
		SuspiciousBuyers: names,
		ResultRows:       len(result.Rows),
	}
	return result, report, nil
}

// resolveColumns maps the configured column names to schema positions.
// All missing names are collected into one error so the user can fix
// the configuration in a single pass.
func resolveColumns(t *Table, cols AnalysisColumns) (buyer, date, addr int, err error) {
	var missing []string
	if buyer = t.ColumnIndex(cols.Buyer); buyer < 0 {
		missing = append(missing, cols.Buyer)
	}
	if date = t.ColumnIndex(cols.Date); date < 0 {
		missing = append(missing, cols.Date)
	}
	if addr = t.ColumnIndex(cols.Address); addr < 0 {
		missing = append(missing, cols.Address)
	}
	if len(missing) > 0 {
		return 0, 0, 0, &MissingColumnError{Columns: missing}
	}
	return buyer, date, addr, nil
}
