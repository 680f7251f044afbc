package web

// handlers.go holds the HTTP handlers for the analyzer pipeline.
//
// Mutating handlers (upload, clear, merge, analyze, reset) answer htmx
// requests with a fresh render of the workflow fragment, so the page
// always reflects the session state after the action. API clients get
// the action's report as JSON instead. Errors never reach this file's
// success paths: they are routed through respondError in errors.go.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/ordersleuth/ordersleuth/internal/core"
	"github.com/ordersleuth/ordersleuth/internal/web/middleware"
	"github.com/ordersleuth/ordersleuth/internal/web/templates"
)

// multipartMemory caps how much of a multipart body is held in memory
// before spilling to temp files.
const multipartMemory = 32 << 20

// activityFeedLimit caps the entries shown in the UI activity feed.
const activityFeedLimit = 20

// sessionID extracts the session ID the cookie middleware stored on
// the context. Empty means the middleware is not mounted on this route.
func (s *Server) sessionID(r *http.Request) string {
	return middleware.SessionID(r.Context())
}

// buildView assembles the render state for the page and the workflow
// fragment from the session snapshot.
func (s *Server) buildView(sessionID string) templates.View {
	status := s.service.SessionStatus(sessionID)
	v := templates.View{
		Status:    status,
		Columns:   s.service.Columns(sessionID),
		Profiles:  core.Profiles(),
		MaxFiles:  s.cfg.Upload.MaxFiles,
		MaxFileMB: s.cfg.Upload.MaxFileSize / (1 << 20),
	}
	for _, p := range v.Profiles {
		if p.Columns == v.Columns {
			v.Selected = p.Key
			break
		}
	}
	if status.HasResult {
		if preview, ok := s.service.ResultPreview(sessionID, core.DefaultPreviewRows); ok {
			v.Preview = preview
		}
	}
	return v
}

// renderWorkflow re-renders the workflow fragment for htmx swaps.
func (s *Server) renderWorkflow(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Workflow(s.buildView(s.sessionID(r))).Render(r.Context(), w)
}

// handleHome renders the full page.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Home(s.buildView(s.sessionID(r))).Render(r.Context(), w)
}

// handleHealth returns service health and capacity information.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"sessions": s.service.SessionCount(),
		"actions":  s.service.LimiterStatus(),
	})
}

// handleUpload accepts multipart order-export files and loads them into
// the session batch. Files that fail to parse are reported, not fatal.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxRequest := s.cfg.Upload.MaxFileSize*int64(s.cfg.Upload.MaxFiles) + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, maxRequest)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondError(w, r, err, httpStatus(err))
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}

	uploads := make([]core.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > s.cfg.Upload.MaxFileSize {
			err := fmt.Errorf("file too large: %s is %d bytes (limit %d)",
				fh.Filename, fh.Size, s.cfg.Upload.MaxFileSize)
			s.respondError(w, r, err, http.StatusRequestEntityTooLarge)
			return
		}
		data, err := readMultipartFile(fh)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("read upload %s: %w", fh.Filename, err), http.StatusBadRequest)
			return
		}
		uploads = append(uploads, core.UploadedFile{Name: fh.Filename, Data: data})
	}

	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.UploadFiles(ctx, s.sessionID(r), uploads)
	if err != nil {
		s.respondError(w, r, err, httpStatus(err))
		return
	}

	if isHTMX(r) {
		s.renderWorkflow(w, r)
		return
	}
	writeJSON(w, report)
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// handleClearBatch drops all loaded files from the session batch.
func (s *Server) handleClearBatch(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.ClearBatch(ctx, s.sessionID(r)); err != nil {
		s.respondError(w, r, err, httpStatus(err))
		return
	}

	if isHTMX(r) {
		s.renderWorkflow(w, r)
		return
	}
	writeJSON(w, map[string]string{"status": "cleared"})
}

// handleMerge combines the batch into one table after the schema check.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.Merge(ctx, s.sessionID(r))
	if err != nil {
		s.respondError(w, r, err, httpStatus(err))
		return
	}

	if isHTMX(r) {
		s.renderWorkflow(w, r)
		return
	}
	writeJSON(w, report)
}

// analyzeRequest is the JSON body for POST /api/analyze. All fields are
// optional; profile wins over individual column names, and blank column
// names keep the session's working values.
type analyzeRequest struct {
	Profile string `json:"profile"`
	Buyer   string `json:"buyer"`
	Date    string `json:"date"`
	Address string `json:"address"`
}

// analyzeResponse pairs the analysis report with a capped preview of
// the result table for API clients.
type analyzeResponse struct {
	Report  *core.AnalysisReport `json:"report"`
	Preview *core.TablePreview   `json:"preview,omitempty"`
}

// handleAnalyze runs the suspicion analysis over the merged table.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := parseAnalyzeRequest(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	sid := s.sessionID(r)
	cols := s.service.Columns(sid)
	if req.Profile != "" {
		p, ok := core.LookupProfile(req.Profile)
		if !ok {
			s.respondError(w, r, fmt.Errorf("unknown column profile: %q", req.Profile), http.StatusBadRequest)
			return
		}
		cols = p.Columns
	} else {
		// Column names are taken verbatim; matching against the merged
		// schema is exact, including whitespace and case.
		if req.Buyer != "" {
			cols.Buyer = req.Buyer
		}
		if req.Date != "" {
			cols.Date = req.Date
		}
		if req.Address != "" {
			cols.Address = req.Address
		}
	}

	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.Analyze(ctx, sid, cols)
	if err != nil {
		s.respondError(w, r, err, httpStatus(err))
		return
	}

	if isHTMX(r) {
		s.renderWorkflow(w, r)
		return
	}
	resp := analyzeResponse{Report: report}
	if preview, ok := s.service.ResultPreview(sid, core.DefaultPreviewRows); ok {
		resp.Preview = preview
	}
	writeJSON(w, resp)
}

// parseAnalyzeRequest reads analyzer parameters from a JSON body or,
// for the htmx form, from form values.
func parseAnalyzeRequest(r *http.Request) (analyzeRequest, error) {
	var req analyzeRequest
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("invalid form: %w", err)
	}
	req.Profile = r.FormValue("profile")
	req.Buyer = r.FormValue("buyer")
	req.Date = r.FormValue("date")
	req.Address = r.FormValue("address")
	return req, nil
}

// handleExport streams the result table as an XLSX download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	file, err := s.service.Export(ctx, s.sessionID(r))
	if err != nil {
		status := httpStatus(err)
		if errors.Is(err, core.ErrNoResult) {
			status = http.StatusNotFound
		}
		s.respondError(w, r, err, status)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Write(file.Data)
}

// handleReset discards the session's batch, merged table, and result.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.Reset(ctx, s.sessionID(r)); err != nil {
		s.respondError(w, r, err, httpStatus(err))
		return
	}

	if isHTMX(r) {
		s.renderWorkflow(w, r)
		return
	}
	writeJSON(w, map[string]string{"status": "reset"})
}

// handleStatus returns the session snapshot as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.SessionStatus(s.sessionID(r)))
}

// profilesResponse lists the registered column profiles plus, once a
// merge has run, the profiles matching the merged schema.
type profilesResponse struct {
	Profiles  []core.ColumnProfile `json:"profiles"`
	Matches   []core.ProfileMatch  `json:"matches,omitempty"`
	Suggested string               `json:"suggested,omitempty"`
}

// handleProfiles returns the registered column profiles and, when the
// session has a merged table, which of them fit its schema.
func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	resp := profilesResponse{Profiles: core.Profiles()}

	status := s.service.SessionStatus(s.sessionID(r))
	if status.Merged {
		resp.Matches = core.MatchProfiles(status.Columns)
		if p, ok := core.SuggestProfile(status.Columns); ok {
			resp.Suggested = p.Key
		}
	}
	writeJSON(w, resp)
}

// handleActivity returns the session's recent actions, newest first.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := activityFeedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= core.DefaultActivitySize {
			limit = n
		}
	}

	entries := s.service.Activity().BySession(s.sessionID(r), limit)
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.ActivityList(entries).Render(r.Context(), w)
		return
	}
	writeJSON(w, map[string]any{"entries": entries})
}

// handleActionStatus reports action limiter capacity for monitoring.
func (s *Server) handleActionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.LimiterStatus())
}
