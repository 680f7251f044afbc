package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActivityKind names a recorded session action.
type ActivityKind string

const (
	ActivityUpload     ActivityKind = "upload"
	ActivityBatchClear ActivityKind = "batch_clear"
	ActivityMerge      ActivityKind = "merge"
	ActivityAnalyze    ActivityKind = "analyze"
	ActivityExport     ActivityKind = "export"
	ActivityReset      ActivityKind = "reset"
)

// ActivityEntry is one recorded action: which session ran it, what it
// was, how long it took, and how it went. Outcome is "ok" or the user
// message code of the action's error.
type ActivityEntry struct {
	ID         string       `json:"id"`
	SessionID  string       `json:"session_id"`
	Kind       ActivityKind `json:"kind"`
	Detail     string       `json:"detail,omitempty"`
	IPAddress  string       `json:"ip_address,omitempty"`
	UserAgent  string       `json:"user_agent,omitempty"`
	Outcome    string       `json:"outcome"`
	DurationMs int64        `json:"duration_ms"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Ok reports whether the action completed without an error.
func (e *ActivityEntry) Ok() bool {
	return e.Outcome == activityOutcomeOK
}

const activityOutcomeOK = "ok"

// DefaultActivitySize is the ring capacity when none is configured.
const DefaultActivitySize = 256

// ActivityLog is a fixed-capacity ring of recent actions across all
// sessions, kept for the operator view. Writers never block; once the
// ring is full the oldest entry is overwritten.
type ActivityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
	next    int
	full    bool
}

// NewActivityLog creates a ring holding up to capacity entries. A
// non-positive capacity falls back to DefaultActivitySize.
func NewActivityLog(capacity int) *ActivityLog {
	if capacity <= 0 {
		capacity = DefaultActivitySize
	}
	return &ActivityLog{entries: make([]ActivityEntry, capacity)}
}

// Record appends an entry, stamping ID and CreatedAt when unset.
func (l *ActivityLog) Record(e ActivityEntry) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.entries[l.next] = e
	l.next++
	if l.next == len(l.entries) {
		l.next = 0
		l.full = true
	}
	l.mu.Unlock()
}

// Recent returns up to limit entries, newest first. A non-positive
// limit returns everything held.
func (l *ActivityLog) Recent(limit int) []ActivityEntry {
	return l.collect(limit, func(ActivityEntry) bool { return true })
}

// BySession returns up to limit entries for one session, newest first.
func (l *ActivityLog) BySession(sessionID string, limit int) []ActivityEntry {
	return l.collect(limit, func(e ActivityEntry) bool { return e.SessionID == sessionID })
}

// Len returns the number of entries currently held.
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}

func (l *ActivityLog) collect(limit int, keep func(ActivityEntry) bool) []ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := l.next
	if l.full {
		size = len(l.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]ActivityEntry, 0, limit)
	for i := 1; i <= size && len(out) < limit; i++ {
		idx := l.next - i
		if idx < 0 {
			idx += len(l.entries)
		}
		if keep(l.entries[idx]) {
			out = append(out, l.entries[idx])
		}
	}
	return out
}
