package core

import (
	"sync"
	"time"
)

// Session holds the working state of one browser session: the loaded
// batch, the merged table, and the latest analysis result.
//
// A session admits one action at a time. Actions take the action slot
// for their full duration, so a second request arriving mid-action is
// rejected with ErrSessionBusy rather than queued. State fields are
// additionally guarded by mu, letting status snapshots read them while
// an action is running; actions mutate state only in short windows
// under mu after the heavy parsing work is done.
type Session struct {
	id        string
	createdAt time.Time

	action chan struct{}

	mu         sync.Mutex
	lastActive time.Time
	batch      []BatchEntry
	files      []FileResult
	columns    AnalysisColumns
	combined   *Table
	result     *Table
	report     *AnalysisReport
}

func newSession(id string, columns AnalysisColumns) *Session {
	now := time.Now()
	return &Session{
		id:         id,
		createdAt:  now,
		lastActive: now,
		action:     make(chan struct{}, 1),
		columns:    columns,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// begin claims the session's action slot without blocking. Returns
// false when another action is running.
func (s *Session) begin() bool {
	select {
	case s.action <- struct{}{}:
		return true
	default:
		return false
	}
}

// end releases the action slot claimed by begin.
func (s *Session) end() {
	<-s.action
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive.Before(cutoff)
}

// status returns a point-in-time snapshot of the session. Safe to call
// while an action is running; it sees the last committed state.
func (s *Session) status() *SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &SessionStatus{
		SessionID:  s.id,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
		Files:      append([]FileResult(nil), s.files...),
		BatchSize:  len(s.batch),
		Merged:     s.combined != nil,
		HasResult:  s.result != nil,
		Analysis:   s.report,
	}
	if s.combined != nil {
		st.MergedRows = s.combined.RowCount()
		st.Columns = append([]string(nil), s.combined.Columns...)
	}
	return st
}
