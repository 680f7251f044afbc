// Package core provides the order-analysis pipeline.
//
// This package contains all domain logic independent of any UI or
// transport layer: loading tabular order exports, merging them under a
// strict schema check, flagging suspicious buyers, and serializing
// results. It can be driven by web handlers, CLI tools, or tests
// without modification.
//
// # Pipeline
//
// The pipeline runs in four steps, each owned by one file:
//
//   - Load: [LoadTable] parses one uploaded file (CSV or workbook) into
//     a [Table]. CSV text is decoded as CP949 first, then UTF-8. A file
//     that fails to parse is dropped with a reason; its siblings in the
//     batch continue.
//   - Merge: [MergeTables] verifies every table carries the first
//     table's exact column sequence, then concatenates rows in file
//     order. One mismatching file rejects the whole batch.
//   - Analyze: [Analyze] drops rows without a buyer value, groups the
//     rest by the raw buyer key, counts distinct order dates and
//     shipping addresses per buyer, and flags buyers with more than one
//     of each. The result is the flagged buyers' full order history,
//     sorted by buyer and date.
//   - Export: [ExportXLSX] serializes any table as a single-sheet
//     workbook for download.
//
// All comparisons are exact string equality on raw cell values. There
// is no trimming, case folding, or date parsing anywhere in the
// pipeline, which keeps results reproducible from the source files.
//
// # Sessions
//
// A [Service] keys all state by session id. Each session holds a
// pending batch of loaded files, at most one merged table, and at most
// one analysis result. Actions on a session are exclusive: a second
// request arriving mid-action gets [ErrSessionBusy] instead of queuing.
// Merge is the only action that replaces the combined table, and only
// on success; a failed merge leaves earlier state intact. A janitor
// removes sessions idle past their TTL, and an [ActionLimiter] caps
// concurrent actions process-wide so uploads cannot exhaust memory.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using
// [MapError]. Each error category has a unique code for support
// reference:
//
//   - FILE001-FILE009: file errors (format, encoding, size)
//   - MERGE001-MERGE002: batch errors (empty batch, schema mismatch)
//   - ANAL001-ANAL002: analysis errors (no merge, missing columns)
//   - EXP001-EXP002: export errors
//   - SESS001-SESS005: session and concurrency errors
//
// Errors never crash the process; every action recovers at its own
// boundary and reports to the caller, who retries after fixing the
// input.
package core
