package core

import (
	"context"
	"strconv"
	"testing"
)

// =============================================================================
// Table Preview Tests
// =============================================================================

func TestPreviewTable(t *testing.T) {
	table := mkTable([]string{"a", "b"})
	for i := 0; i < 30; i++ {
		table.Rows = append(table.Rows, []string{strconv.Itoa(i), "x"})
	}

	tests := []struct {
		name          string
		limit         int
		wantRows      int
		wantTruncated bool
	}{
		{"under the cap", 50, 30, false},
		{"exactly the cap", 30, 30, false},
		{"over the cap", 10, 10, true},
		{"default limit", 0, DefaultPreviewRows, true},
		{"negative limit", -3, DefaultPreviewRows, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreviewTable(table, tt.limit)
			if len(got.Rows) != tt.wantRows {
				t.Errorf("len(Rows) = %d, want %d", len(got.Rows), tt.wantRows)
			}
			if got.Truncated != tt.wantTruncated {
				t.Errorf("Truncated = %v, want %v", got.Truncated, tt.wantTruncated)
			}
			if got.TotalRows != 30 {
				t.Errorf("TotalRows = %d, want 30", got.TotalRows)
			}
		})
	}
}

func TestPreviewTable_FirstRowsKept(t *testing.T) {
	table := mkTable([]string{"n"}, []string{"0"}, []string{"1"}, []string{"2"})

	got := PreviewTable(table, 2)
	if len(got.Rows) != 2 || got.Rows[0][0] != "0" || got.Rows[1][0] != "1" {
		t.Errorf("PreviewTable kept %v, want the first two rows", got.Rows)
	}
}

func TestPreviewTable_CopiesData(t *testing.T) {
	table := mkTable([]string{"a"}, []string{"original"})

	p := PreviewTable(table, 10)
	p.Columns[0] = "mutated"
	p.Rows[0][0] = "mutated"

	if table.Columns[0] != "a" || table.Rows[0][0] != "original" {
		t.Error("mutating the preview changed the source table")
	}
}

func TestPreviewTable_EmptyTable(t *testing.T) {
	got := PreviewTable(mkTable([]string{"a", "b"}), 10)
	if len(got.Rows) != 0 {
		t.Errorf("len(Rows) = %d, want 0", len(got.Rows))
	}
	if got.Truncated {
		t.Error("Truncated = true for an empty table")
	}
	if got.TotalRows != 0 {
		t.Errorf("TotalRows = %d, want 0", got.TotalRows)
	}
}

// =============================================================================
// Service Result Preview Tests
// =============================================================================

func TestService_ResultPreview(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	const sid = "session-preview"

	if _, ok := s.ResultPreview(sid, 10); ok {
		t.Fatal("ResultPreview() = ok before any analysis")
	}

	mustUpload(t, s, sid, csvFile("a.csv", ordersA))
	if _, err := s.Merge(ctx, sid); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if _, err := s.Analyze(ctx, sid, DefaultColumns()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	p, ok := s.ResultPreview(sid, 1)
	if !ok {
		t.Fatal("ResultPreview() = !ok after analysis")
	}
	if len(p.Rows) != 1 || !p.Truncated {
		t.Errorf("preview rows = %d truncated = %v, want 1 row truncated", len(p.Rows), p.Truncated)
	}
	if p.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2", p.TotalRows)
	}
}
