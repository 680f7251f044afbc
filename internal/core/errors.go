package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by loaders and session actions. Their text
// feeds the pattern table in user_messages.go, so changes here need a
// matching pattern update there.
var (
	// ErrUnsupportedFormat marks a file whose extension is neither
	// delimited text nor a spreadsheet. Such files are skipped, not failed.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrBadEncoding marks text that is neither valid CP949 nor valid UTF-8.
	ErrBadEncoding = errors.New("undecodable text: not valid CP949 or UTF-8")

	// ErrEmptyBatch rejects a merge when no file survived loading.
	ErrEmptyBatch = errors.New("no files loaded: nothing to merge")

	// ErrNoMergedTable rejects analysis before a successful merge.
	ErrNoMergedTable = errors.New("no merged table: run merge first")

	// ErrNoResult rejects an export before a successful analysis.
	ErrNoResult = errors.New("no analysis result: run analysis first")

	// ErrSessionBusy rejects an action while another one is still
	// running in the same session.
	ErrSessionBusy = errors.New("session busy: another action is in progress")
)

// SchemaMismatchError rejects a merge whose tables disagree on the
// column layout. The first table's schema is the reference; FileName is
// the first file that diverged from it. Nothing is merged on mismatch.
type SchemaMismatchError struct {
	FileName string
	Want     []string
	Got      []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch in file %q: columns [%s] do not match reference [%s]",
		e.FileName, strings.Join(e.Got, ", "), strings.Join(e.Want, ", "))
}

// MissingColumnError refuses analysis when one or more of the
// configured column names are absent from the merged schema.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}
