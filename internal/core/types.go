package core

import "time"

// Table is an in-memory tabular dataset: an ordered column schema plus
// data rows. Every row has exactly len(Columns) cells; the loaders
// enforce this before a Table is handed to anything else. Cell values
// are kept as the raw strings found in the source file, with no type
// coercion, trimming, or case folding.
type Table struct {
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of data rows, excluding the header.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1 when the
// column is absent. Names are compared exactly; "Name" and "name " are
// different columns. If the schema repeats a name, the first match wins.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists in the schema.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// BatchEntry is one successfully loaded file waiting to be merged,
// tagged with its originating filename for diagnostics.
type BatchEntry struct {
	FileName string
	Table    *Table
}

// UploadedFile is a single file received from the client: its name as
// uploaded and its raw byte content.
type UploadedFile struct {
	Name string
	Data []byte
}

// FileStatus classifies the outcome of loading one uploaded file.
type FileStatus string

const (
	// FileLoaded means the file parsed into a Table and joined the batch.
	FileLoaded FileStatus = "loaded"
	// FileSkipped means the extension is unsupported; the file was ignored.
	FileSkipped FileStatus = "skipped"
	// FileFailed means decoding or parsing raised an error; the file was
	// dropped while the rest of the batch continued.
	FileFailed FileStatus = "failed"
)

// FileResult reports the per-file outcome of an upload action.
type FileResult struct {
	FileName    string     `json:"file_name"`
	Status      FileStatus `json:"status"`
	RowCount    int        `json:"row_count"`
	ColumnCount int        `json:"column_count"`
	Reason      string     `json:"reason,omitempty"`
}

// BatchReport summarizes one upload action. Counts cover only the files
// submitted in that action, not the whole session batch.
type BatchReport struct {
	Files   []FileResult `json:"files"`
	Loaded  int          `json:"loaded"`
	Skipped int          `json:"skipped"`
	Failed  int          `json:"failed"`
}

// MergeReport summarizes a successful merge: how many files were
// combined, the total row count, and the shared column schema.
type MergeReport struct {
	FileCount int      `json:"file_count"`
	RowCount  int      `json:"row_count"`
	Columns   []string `json:"columns"`
}

// AnalysisColumns names the three columns the analyzer keys on. All
// three must be present in the merged schema for analysis to run.
type AnalysisColumns struct {
	Buyer   string `json:"buyer"`
	Date    string `json:"date"`
	Address string `json:"address"`
}

// Default analyzer column names, matching the header row of Korean
// commerce order exports.
const (
	DefaultBuyerColumn   = "주문자"
	DefaultDateColumn    = "주문일"
	DefaultAddressColumn = "주소"
)

// DefaultColumns returns the stock Korean order-export column names.
func DefaultColumns() AnalysisColumns {
	return AnalysisColumns{
		Buyer:   DefaultBuyerColumn,
		Date:    DefaultDateColumn,
		Address: DefaultAddressColumn,
	}
}

// AnalysisReport summarizes one analysis run over the merged table.
type AnalysisReport struct {
	Columns          AnalysisColumns `json:"columns"`
	TotalRows        int             `json:"total_rows"`
	ExcludedRows     int             `json:"excluded_rows"`
	BuyerCount       int             `json:"buyer_count"`
	SuspiciousCount  int             `json:"suspicious_count"`
	SuspiciousBuyers []string        `json:"suspicious_buyers"`
	ResultRows       int             `json:"result_rows"`
}

// HasFindings reports whether the run flagged at least one buyer.
func (r *AnalysisReport) HasFindings() bool {
	return r.SuspiciousCount > 0
}

// ExportFile is a serialized spreadsheet ready for download.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// SessionStatus is a read-only snapshot of one session's state.
type SessionStatus struct {
	SessionID  string          `json:"session_id"`
	CreatedAt  time.Time       `json:"created_at"`
	LastActive time.Time       `json:"last_active"`
	Files      []FileResult    `json:"files,omitempty"`
	BatchSize  int             `json:"batch_size"`
	Merged     bool            `json:"merged"`
	MergedRows int             `json:"merged_rows"`
	Columns    []string        `json:"columns,omitempty"`
	HasResult  bool            `json:"has_result"`
	Analysis   *AnalysisReport `json:"analysis,omitempty"`
}
