// Package core provides the order-analysis pipeline.
//
// # Error Codes Reference
//
// Every error shown in the UI carries a short code. A person reporting
// a problem only needs to quote the code; the log line with the same
// code holds the technical detail.
//
// Codes are grouped by pipeline stage:
//
// # File Errors (FILE001-FILE099)
//
// Errors raised while loading uploaded files:
//
//	FILE001 - Unsupported format: file is neither CSV nor a workbook
//	          Action: Upload .csv or .xlsx files
//	          Patterns: "unsupported file format"
//
//	FILE002 - Encoding error: text is not valid CP949 or UTF-8
//	          Action: Save the file as UTF-8 and upload it again
//	          Patterns: "undecodable text"
//
//	FILE003 - Invalid CSV: rows do not parse as consistent delimited text
//	          Action: Re-export the file; every row needs the same columns
//	          Patterns: "invalid csv"
//
//	FILE004 - Empty file: no rows found
//	          Action: Upload a file with a header row and data
//	          Patterns: "empty file"
//
//	FILE005 - Unreadable workbook: the spreadsheet could not be opened
//	          Action: Re-save the workbook as .xlsx and try again
//	          Patterns: "open workbook", "read sheet"
//
//	FILE006 - Ragged sheet: a data row is wider than the header
//	          Action: Remove stray cells past the last header column
//	          Patterns: "wider than the header"
//
//	FILE007 - No file: no file was selected
//	          Action: Choose at least one file to upload
//	          Patterns: "no file provided"
//
//	FILE008 - File too large: the upload exceeds the size limit
//	          Action: Split the export into smaller files
//	          Patterns: "request body too large", "file too large"
//
//	FILE009 - Too many files: the upload exceeds the file-count limit
//	          Action: Upload the files in smaller groups
//	          Patterns: "too many files"
//
// # Merge Errors (MERGE001-MERGE099)
//
// Errors raised while validating and combining the batch:
//
//	MERGE001 - Nothing to merge: no file survived loading
//	           Action: Upload at least one readable file first
//	           Patterns: "nothing to merge"
//
//	MERGE002 - Schema mismatch: a file's columns differ from the first file
//	           Action: Re-export all files with identical column layouts
//	           Patterns: "schema mismatch"
//
// # Analysis Errors (ANAL001-ANAL099)
//
//	ANAL001 - No merged table: analysis was requested before a merge
//	          Action: Merge the uploaded files first
//	          Patterns: "no merged table"
//
//	ANAL002 - Missing column: a configured column is absent from the schema
//	          Action: Fix the buyer, date, and address column names
//	          Patterns: "missing required column"
//
//	ANAL003 - Unknown profile: the requested column profile is not registered
//	          Action: Pick a profile from the list or enter columns manually
//	          Patterns: "unknown column profile"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - No result: export was requested before an analysis
//	         Action: Run the analysis first
//	         Patterns: "no analysis result"
//
//	EXP002 - Export failed: the workbook could not be serialized
//	         Action: Try the export again
//	         Patterns: "export:"
//
// # Session Errors (SESS001-SESS099)
//
//	SESS001 - Session busy: another action is still running
//	          Action: Wait for the current action to finish
//	          Patterns: "session busy"
//
//	SESS002 - Server busy: too many actions in progress
//	          Action: Try again in a moment
//	          Patterns: "too many actions"
//
//	SESS003 - Missing session: the request carried no session id
//	          Action: Reload the page to start a session
//	          Patterns: "missing session"
//
//	SESS004 - Request cancelled
//	          Patterns: "context canceled"
//
//	SESS005 - Request timed out
//	          Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check the application logs
// for the original technical error when users report ERR000.
//
// # Pattern Matching
//
// Matching is a case-insensitive substring test against the error text,
// in table order. Specific patterns come before general ones so the
// first hit is the right one.
package core

import (
	"fmt"
	"strings"
)

// UserMessage is the shape every surfaced error takes. Message says
// what went wrong, Action what to do next, Code what to quote when
// asking for help.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

// errorPattern pairs a technical-error substring with the message shown
// for it.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error substrings (case-insensitive) to
// user messages. Patterns are ordered; the first match wins, and the
// texts must stay in sync with the errors produced in errors.go and the
// loaders. The package documentation above is the catalog of record.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE009)
	// Raised while decoding and parsing uploaded files.
	// =========================================================================
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload .csv or .xlsx files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "undecodable text",
		msg: UserMessage{
			Message: "The file encoding is not recognized",
			Action:  "Save the file as UTF-8 and upload it again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "The file is not a valid CSV",
			Action:  "Re-export the file; every row needs the same number of columns",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no rows",
			Action:  "Upload a file with a header row and data",
			Code:    "FILE004",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Re-save the file as .xlsx and try again",
			Code:    "FILE005",
		},
	},
	{
		pattern: "read sheet",
		msg: UserMessage{
			Message: "The workbook sheet could not be read",
			Action:  "Re-save the file as .xlsx and try again",
			Code:    "FILE005",
		},
	},
	{
		pattern: "wider than the header",
		msg: UserMessage{
			Message: "A data row has more cells than the header",
			Action:  "Remove stray cells past the last header column",
			Code:    "FILE006",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose at least one file to upload",
			Code:    "FILE007",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The upload exceeds the size limit",
			Action:  "Split the export into smaller files",
			Code:    "FILE008",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The upload exceeds the size limit",
			Action:  "Split the export into smaller files",
			Code:    "FILE008",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files in one upload",
			Action:  "Upload the files in smaller groups",
			Code:    "FILE009",
		},
	},

	// =========================================================================
	// Merge Errors (MERGE001-MERGE002)
	// Raised while validating and combining the uploaded batch.
	// =========================================================================
	{
		pattern: "nothing to merge",
		msg: UserMessage{
			Message: "There are no loaded files to merge",
			Action:  "Upload at least one readable file first",
			Code:    "MERGE001",
		},
	},
	{
		pattern: "schema mismatch",
		msg: UserMessage{
			Message: "The files do not share the same columns",
			Action:  "Re-export all files with identical column layouts",
			Code:    "MERGE002",
		},
	},

	// =========================================================================
	// Analysis Errors (ANAL001-ANAL003)
	// =========================================================================
	{
		pattern: "no merged table",
		msg: UserMessage{
			Message: "There is no merged table to analyze",
			Action:  "Merge the uploaded files first",
			Code:    "ANAL001",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A configured column was not found in the merged table",
			Action:  "Check the buyer, date, and address column names",
			Code:    "ANAL002",
		},
	},
	{
		pattern: "unknown column profile",
		msg: UserMessage{
			Message: "The selected column profile does not exist",
			Action:  "Pick a profile from the list or enter columns manually",
			Code:    "ANAL003",
		},
	},

	// =========================================================================
	// Export Errors (EXP001-EXP002)
	// =========================================================================
	{
		pattern: "no analysis result",
		msg: UserMessage{
			Message: "There is no analysis result to download",
			Action:  "Run the analysis first",
			Code:    "EXP001",
		},
	},
	{
		pattern: "export:",
		msg: UserMessage{
			Message: "The spreadsheet could not be built",
			Action:  "Try the export again",
			Code:    "EXP002",
		},
	},

	// =========================================================================
	// Session Errors (SESS001-SESS005)
	// =========================================================================
	{
		pattern: "session busy",
		msg: UserMessage{
			Message: "Another action is still running in this session",
			Action:  "Wait for it to finish and try again",
			Code:    "SESS001",
		},
	},
	{
		pattern: "too many actions",
		msg: UserMessage{
			Message: "The server is busy",
			Action:  "Try again in a moment",
			Code:    "SESS002",
		},
	},
	{
		pattern: "missing session",
		msg: UserMessage{
			Message: "The request carried no session",
			Action:  "Reload the page to start a session",
			Code:    "SESS003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "SESS004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Try a smaller upload or check your connection",
			Code:    "SESS005",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage covers everything the table does not (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError resolves err to its UserMessage via the pattern table,
// falling back to ERR000. A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err for plain-text display as
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be
// shown to users as-is. Returns false for the generic ERR000 fallback,
// whose raw text may leak internals.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
