package core

// DefaultPreviewRows caps how many result rows a preview carries.
const DefaultPreviewRows = 20

// TablePreview is a size-capped copy of a table for display. Rows past
// the cap are dropped, never summarized; the full table stays in the
// session for export.
type TablePreview struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
	Truncated bool       `json:"truncated"`
}

// PreviewTable copies the first limit rows of a table. A non-positive
// limit falls back to DefaultPreviewRows.
func PreviewTable(t *Table, limit int) *TablePreview {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}

	p := &TablePreview{
		Columns:   append([]string(nil), t.Columns...),
		TotalRows: t.RowCount(),
	}

	n := len(t.Rows)
	if n > limit {
		n = limit
		p.Truncated = true
	}
	p.Rows = make([][]string, n)
	for i := 0; i < n; i++ {
		p.Rows[i] = append([]string(nil), t.Rows[i]...)
	}
	return p
}

// ResultPreview returns a capped view of the session's analysis result.
// Read-only; safe to call while an action runs.
func (s *Service) ResultPreview(sessionID string, limit int) (*TablePreview, bool) {
	result, ok := s.Result(sessionID)
	if !ok {
		return nil, false
	}
	return PreviewTable(result, limit), true
}
