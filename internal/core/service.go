package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxFilesPerUpload caps how many files one upload action
	// may carry.
	DefaultMaxFilesPerUpload = 20

	// DefaultSessionTTL is how long an idle session survives before the
	// janitor removes it.
	DefaultSessionTTL = 30 * time.Minute

	// DefaultSweepInterval is how often the janitor looks for expired
	// sessions.
	DefaultSweepInterval = 5 * time.Minute
)

// ServiceOptions configures a Service. Zero fields fall back to the
// package defaults.
type ServiceOptions struct {
	MaxConcurrentActions int
	ActionMaxWait        time.Duration
	MaxFilesPerUpload    int
	SessionTTL           time.Duration
	SweepInterval        time.Duration
	ActivityLogSize      int
	DefaultColumns       AnalysisColumns
}

// Service owns all live sessions and runs the pipeline actions against
// them: upload, merge, analyze, export, reset. Each action is exclusive
// within its session, counted against a process-wide limiter, and
// recorded in the activity log.
type Service struct {
	opts     ServiceOptions
	limiter  *ActionLimiter
	activity *ActivityLog
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
}

// NewService creates a Service and starts its session janitor. Call
// Close to stop the janitor.
func NewService(opts ServiceOptions) *Service {
	if opts.MaxFilesPerUpload <= 0 {
		opts.MaxFilesPerUpload = DefaultMaxFilesPerUpload
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.DefaultColumns == (AnalysisColumns{}) {
		opts.DefaultColumns = DefaultColumns()
	}

	s := &Service{
		opts:     opts,
		limiter:  NewActionLimiter(opts.MaxConcurrentActions, opts.ActionMaxWait),
		activity: NewActivityLog(opts.ActivityLogSize),
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Close stops the session janitor. Safe to call more than once.
func (s *Service) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Limiter exposes the action limiter for shutdown draining and status
// reporting.
func (s *Service) Limiter() *ActionLimiter {
	return s.limiter
}

// Activity exposes the cross-session action log.
func (s *Service) Activity() *ActivityLog {
	return s.activity
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// OpenSession returns the session for id, creating it on first use. New
// sessions start with the configured default analyzer columns.
func (s *Service) OpenSession(id string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = newSession(id, s.opts.DefaultColumns)
	s.sessions[id] = sess
	return sess
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// withSession runs fn as the session's exclusive action, counted
// against the process-wide limiter and recorded in the activity log.
// Concurrent actions on the same session are rejected with
// ErrSessionBusy, not queued. The detail string fn returns becomes the
// activity entry's detail; on error the entry carries the mapped user
// message code instead.
func (s *Service) withSession(ctx context.Context, sessionID string, kind ActivityKind, fn func(*Session) (string, error)) error {
	if sessionID == "" {
		return errors.New("missing session id")
	}

	start := time.Now()
	detail, err := s.runAction(ctx, sessionID, fn)

	outcome := activityOutcomeOK
	if err != nil {
		outcome = MapError(err).Code
	}
	s.activity.Record(ActivityEntry{
		SessionID:  sessionID,
		Kind:       kind,
		Detail:     detail,
		IPAddress:  IPAddressFromContext(ctx),
		UserAgent:  UserAgentFromContext(ctx),
		Outcome:    outcome,
		DurationMs: time.Since(start).Milliseconds(),
	})
	return err
}

func (s *Service) runAction(ctx context.Context, sessionID string, fn func(*Session) (string, error)) (string, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	defer s.limiter.Release()

	sess := s.OpenSession(sessionID)
	if !sess.begin() {
		return "", ErrSessionBusy
	}
	defer sess.end()

	sess.touch()
	return fn(sess)
}

// UploadFiles loads each submitted file and appends the successful ones
// to the session's pending batch. A file that fails to parse is dropped
// with a reason while its siblings continue; unsupported extensions are
// skipped. The returned report covers only this action's files.
func (s *Service) UploadFiles(ctx context.Context, sessionID string, files []UploadedFile) (*BatchReport, error) {
	if len(files) == 0 {
		return nil, errors.New("no file provided")
	}
	if len(files) > s.opts.MaxFilesPerUpload {
		return nil, fmt.Errorf("too many files: %d exceeds the limit of %d", len(files), s.opts.MaxFilesPerUpload)
	}

	var report *BatchReport
	err := s.withSession(ctx, sessionID, ActivityUpload, func(sess *Session) (string, error) {
		report = &BatchReport{Files: make([]FileResult, 0, len(files))}
		var loaded []BatchEntry

		for _, file := range files {
			table, err := LoadTable(file.Name, file.Data)
			result := FileResult{FileName: file.Name}
			switch {
			case errors.Is(err, ErrUnsupportedFormat):
				result.Status = FileSkipped
				result.Reason = err.Error()
				report.Skipped++
			case err != nil:
				result.Status = FileFailed
				result.Reason = err.Error()
				report.Failed++
				s.logger.Warn("file rejected",
					"session_id", sessionID,
					"file", file.Name,
					"error", err,
				)
			default:
				result.Status = FileLoaded
				result.RowCount = table.RowCount()
				result.ColumnCount = len(table.Columns)
				loaded = append(loaded, BatchEntry{FileName: file.Name, Table: table})
				report.Loaded++
			}
			report.Files = append(report.Files, result)
		}

		sess.mu.Lock()
		sess.batch = append(sess.batch, loaded...)
		sess.files = append(sess.files, report.Files...)
		sess.mu.Unlock()

		detail := fmt.Sprintf("%d loaded", report.Loaded)
		if report.Skipped > 0 || report.Failed > 0 {
			detail = fmt.Sprintf("%d loaded, %d skipped, %d failed",
				report.Loaded, report.Skipped, report.Failed)
		}
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ClearBatch drops the session's pending batch without touching the
// merged table or analysis result.
func (s *Service) ClearBatch(ctx context.Context, sessionID string) error {
	return s.withSession(ctx, sessionID, ActivityBatchClear, func(sess *Session) (string, error) {
		sess.mu.Lock()
		dropped := len(sess.batch)
		sess.batch = nil
		sess.files = nil
		sess.mu.Unlock()
		return fmt.Sprintf("%d files dropped", dropped), nil
	})
}

// Merge validates and concatenates the session's pending batch into a
// combined table. On success the previous combined table is replaced
// and any analysis result from it is cleared; on failure the session
// keeps whatever state it had, so a bad batch never destroys an earlier
// successful merge.
func (s *Service) Merge(ctx context.Context, sessionID string) (*MergeReport, error) {
	var report *MergeReport
	err := s.withSession(ctx, sessionID, ActivityMerge, func(sess *Session) (string, error) {
		sess.mu.Lock()
		batch := append([]BatchEntry(nil), sess.batch...)
		sess.mu.Unlock()

		combined, err := MergeTables(batch)
		if err != nil {
			return "", err
		}

		sess.mu.Lock()
		sess.combined = combined
		sess.result = nil
		sess.report = nil
		sess.mu.Unlock()

		report = &MergeReport{
			FileCount: len(batch),
			RowCount:  combined.RowCount(),
			Columns:   append([]string(nil), combined.Columns...),
		}
		return fmt.Sprintf("%d files, %d rows", report.FileCount, report.RowCount), nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Analyze runs the suspicious-buyer analysis over the merged table with
// the given column names and stores the result for export. The columns
// used are remembered as the session's working configuration.
func (s *Service) Analyze(ctx context.Context, sessionID string, cols AnalysisColumns) (*AnalysisReport, error) {
	var report *AnalysisReport
	err := s.withSession(ctx, sessionID, ActivityAnalyze, func(sess *Session) (string, error) {
		sess.mu.Lock()
		combined := sess.combined
		sess.mu.Unlock()
		if combined == nil {
			return "", ErrNoMergedTable
		}

		result, rep, err := Analyze(combined, cols)
		if err != nil {
			return "", err
		}

		sess.mu.Lock()
		sess.result = result
		sess.report = rep
		sess.columns = cols
		sess.mu.Unlock()

		report = rep
		return fmt.Sprintf("%d suspicious of %d buyers", rep.SuspiciousCount, rep.BuyerCount), nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Export serializes the session's last analysis result as a workbook.
// Failure here leaves the result in place so the export can be retried.
func (s *Service) Export(ctx context.Context, sessionID string) (*ExportFile, error) {
	var file *ExportFile
	err := s.withSession(ctx, sessionID, ActivityExport, func(sess *Session) (string, error) {
		sess.mu.Lock()
		result := sess.result
		sess.mu.Unlock()
		if result == nil {
			return "", ErrNoResult
		}

		data, err := ExportXLSX(result)
		if err != nil {
			return "", err
		}
		file = &ExportFile{
			FileName:    ExportFileName,
			ContentType: ExportContentType,
			Data:        data,
		}
		return fmt.Sprintf("%d rows, %d bytes", result.RowCount(), len(data)), nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Reset returns the session to its initial state: empty batch, no
// merged table, no result, default columns.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	return s.withSession(ctx, sessionID, ActivityReset, func(sess *Session) (string, error) {
		sess.mu.Lock()
		sess.batch = nil
		sess.files = nil
		sess.combined = nil
		sess.result = nil
		sess.report = nil
		sess.columns = s.opts.DefaultColumns
		sess.mu.Unlock()
		return "", nil
	})
}

// Result returns the session's last analysis result table, if any.
// Read-only; safe to call while an action runs.
func (s *Service) Result(sessionID string) (*Table, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.result == nil {
		return nil, false
	}
	return sess.result, true
}

// Columns returns the session's working analyzer columns: the last set
// used for analysis, or the configured defaults for a fresh session.
func (s *Service) Columns(sessionID string) AnalysisColumns {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return s.opts.DefaultColumns
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.columns
}

// SessionStatus returns a snapshot of the session, creating the session
// on first use so a fresh browser tab gets a coherent empty status.
func (s *Service) SessionStatus(sessionID string) *SessionStatus {
	if sessionID == "" {
		return &SessionStatus{}
	}
	return s.OpenSession(sessionID).status()
}

// LimiterStatus reports current action-limiter occupancy.
func (s *Service) LimiterStatus() ActionLimiterStatus {
	return s.limiter.Status()
}

// janitor periodically removes sessions idle past the TTL. Sessions
// with an action in flight are skipped and picked up on a later sweep.
func (s *Service) janitor() {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.sweepExpired(time.Now().Add(-s.opts.SessionTTL)); n > 0 {
				s.logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}

func (s *Service) sweepExpired(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if !sess.idleSince(cutoff) {
			continue
		}
		if !sess.begin() {
			continue
		}
		sess.end()
		delete(s.sessions, id)
		removed++
	}
	return removed
}
