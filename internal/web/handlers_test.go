package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ordersleuth/ordersleuth/internal/config"
	"github.com/ordersleuth/ordersleuth/internal/core"
)

// =============================================================================
// Test Helpers
// =============================================================================

const (
	ordersA   = "주문자,주문일,주소\n김철수,2024-01-01,서울\n김철수,2024-01-02,부산\n"
	ordersB   = "주문자,주문일,주소\n이영희,2024-01-01,광주\n"
	ordersEng = "buyer,order_date,address\nkim,2024-01-01,seoul\nkim,2024-01-02,busan\n"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RequestTimeout:  time.Minute,
		},
		Upload: config.UploadConfig{MaxFileSize: 1 << 20, MaxFiles: 5},
		Action: config.ActionConfig{MaxConcurrent: 4, MaxWaitTime: time.Second, HistorySize: 64},
		Analysis: config.AnalysisConfig{
			BuyerColumn:   "주문자",
			DateColumn:    "주문일",
			AddressColumn: "주소",
		},
		Session: config.SessionConfig{
			TTL:           time.Hour,
			SweepInterval: time.Hour,
			CookieName:    "osid",
		},
		Rate:     config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	service := core.NewService(core.ServiceOptions{
		MaxConcurrentActions: cfg.Action.MaxConcurrent,
		ActionMaxWait:        cfg.Action.MaxWaitTime,
		MaxFilesPerUpload:    cfg.Upload.MaxFiles,
		SessionTTL:           cfg.Session.TTL,
		SweepInterval:        cfg.Session.SweepInterval,
		ActivityLogSize:      cfg.Action.HistorySize,
	})
	t.Cleanup(service.Close)

	srv := NewServer(service, cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

// testClient drives the router with a stable session cookie so requests
// land in the same session, like a browser would.
type testClient struct {
	t   *testing.T
	srv *Server
	sid string
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	return &testClient{t: t, srv: newTestServer(t, nil), sid: uuid.NewString()}
}

func (c *testClient) do(method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.AddCookie(&http.Cookie{Name: "osid", Value: c.sid})
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)
	return rec
}

type uploadFile struct {
	name    string
	content string
}

func multipartBody(t *testing.T, files []uploadFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatalf("CreateFormFile(%s): %v", f.name, err)
		}
		if _, err := fw.Write([]byte(f.content)); err != nil {
			t.Fatalf("write %s: %v", f.name, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (c *testClient) upload(files ...uploadFile) *httptest.ResponseRecorder {
	c.t.Helper()
	body, contentType := multipartBody(c.t, files)
	return c.do(http.MethodPost, "/api/upload", body, map[string]string{"Content-Type": contentType})
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// wantError asserts an error response with the given status and code.
func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, status, rec.Body.String())
	}
	var er ErrorResponse
	decodeJSON(t, rec, &er)
	if er.Code != code {
		t.Errorf("error code = %q, want %q", er.Code, code)
	}
	if er.Message == "" {
		t.Error("error message is empty")
	}
}

// =============================================================================
// Pipeline Flow Tests
// =============================================================================

func TestServer_FullPipeline(t *testing.T) {
	c := newTestClient(t)

	rec := c.upload(uploadFile{"a.csv", ordersA}, uploadFile{"b.csv", ordersB})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %q", rec.Code, rec.Body.String())
	}
	var batch core.BatchReport
	decodeJSON(t, rec, &batch)
	if batch.Loaded != 2 || batch.Failed != 0 {
		t.Fatalf("upload report = %+v, want 2 loaded", batch)
	}

	rec = c.do(http.MethodPost, "/api/merge", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("merge status = %d, body %q", rec.Code, rec.Body.String())
	}
	var merge core.MergeReport
	decodeJSON(t, rec, &merge)
	if merge.FileCount != 2 || merge.RowCount != 3 {
		t.Fatalf("merge report = %+v, want 2 files 3 rows", merge)
	}

	rec = c.do(http.MethodPost, "/api/analyze", strings.NewReader("{}"),
		map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, body %q", rec.Code, rec.Body.String())
	}
	var analysis analyzeResponse
	decodeJSON(t, rec, &analysis)
	if analysis.Report.SuspiciousCount != 1 {
		t.Fatalf("analysis report = %+v, want 1 suspicious buyer", analysis.Report)
	}
	if got := analysis.Report.SuspiciousBuyers; len(got) != 1 || got[0] != "김철수" {
		t.Errorf("suspicious buyers = %v, want [김철수]", got)
	}
	if analysis.Preview == nil || len(analysis.Preview.Rows) != 2 {
		t.Errorf("preview = %+v, want 2 rows", analysis.Preview)
	}

	rec = c.do(http.MethodGet, "/api/export", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != core.ExportContentType {
		t.Errorf("export Content-Type = %q, want %q", got, core.ExportContentType)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, core.ExportFileName) {
		t.Errorf("Content-Disposition = %q, want it to name %q", got, core.ExportFileName)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("export body is not a zip container")
	}

	rec = c.do(http.MethodGet, "/api/status", nil, nil)
	var status core.SessionStatus
	decodeJSON(t, rec, &status)
	if !status.Merged || !status.HasResult || status.BatchSize != 2 {
		t.Errorf("status = %+v, want merged with result and 2 batch files", status)
	}
}

func TestServer_AnalyzeWithProfile(t *testing.T) {
	c := newTestClient(t)
	c.upload(uploadFile{"eng.csv", ordersEng})
	c.do(http.MethodPost, "/api/merge", nil, nil)

	rec := c.do(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"profile":"english-order-export"}`),
		map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, body %q", rec.Code, rec.Body.String())
	}

	var analysis analyzeResponse
	decodeJSON(t, rec, &analysis)
	if analysis.Report.Columns.Buyer != "buyer" {
		t.Errorf("buyer column = %q, want the profile's", analysis.Report.Columns.Buyer)
	}
	if analysis.Report.SuspiciousCount != 1 {
		t.Errorf("suspicious count = %d, want 1", analysis.Report.SuspiciousCount)
	}
}

func TestServer_AnalyzeWithFormColumns(t *testing.T) {
	c := newTestClient(t)
	c.upload(uploadFile{"custom.csv", "구매자,일자,주소지\nkim,2024-01-01,seoul\nkim,2024-01-02,busan\n"})
	c.do(http.MethodPost, "/api/merge", nil, nil)

	form := url.Values{
		"buyer":   {"구매자"},
		"date":    {"일자"},
		"address": {"주소지"},
	}
	rec := c.do(http.MethodPost, "/api/analyze", strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, body %q", rec.Code, rec.Body.String())
	}

	var analysis analyzeResponse
	decodeJSON(t, rec, &analysis)
	if analysis.Report.Columns.Buyer != "구매자" {
		t.Errorf("buyer column = %q, want 구매자", analysis.Report.Columns.Buyer)
	}
}

func TestServer_ClearBatch(t *testing.T) {
	c := newTestClient(t)
	c.upload(uploadFile{"a.csv", ordersA})

	rec := c.do(http.MethodDelete, "/api/batch", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}

	var status core.SessionStatus
	rec = c.do(http.MethodGet, "/api/status", nil, nil)
	decodeJSON(t, rec, &status)
	if status.BatchSize != 0 {
		t.Errorf("BatchSize = %d after clear, want 0", status.BatchSize)
	}
}

func TestServer_Reset(t *testing.T) {
	c := newTestClient(t)
	c.upload(uploadFile{"a.csv", ordersA})
	c.do(http.MethodPost, "/api/merge", nil, nil)

	rec := c.do(http.MethodPost, "/api/reset", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}

	var status core.SessionStatus
	rec = c.do(http.MethodGet, "/api/status", nil, nil)
	decodeJSON(t, rec, &status)
	if status.BatchSize != 0 || status.Merged || status.HasResult {
		t.Errorf("status after reset = %+v, want empty", status)
	}
}

// =============================================================================
// Error Path Tests
// =============================================================================

func TestServer_UploadNoFiles(t *testing.T) {
	c := newTestClient(t)
	rec := c.upload()
	wantError(t, rec, http.StatusBadRequest, "FILE007")
}

func TestServer_UploadRejectsOversizedFile(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 64

	srv := newTestServer(t, cfg)
	c := &testClient{t: t, srv: srv, sid: uuid.NewString()}

	rec := c.upload(uploadFile{"big.csv", strings.Repeat("x", 200)})
	wantError(t, rec, http.StatusRequestEntityTooLarge, "FILE008")
}

func TestServer_UploadTooManyFiles(t *testing.T) {
	c := newTestClient(t)
	files := make([]uploadFile, 6)
	for i := range files {
		files[i] = uploadFile{fmt.Sprintf("f%d.csv", i), ordersA}
	}
	rec := c.upload(files...)
	wantError(t, rec, http.StatusBadRequest, "FILE009")
}

func TestServer_MergeBeforeUpload(t *testing.T) {
	c := newTestClient(t)
	rec := c.do(http.MethodPost, "/api/merge", nil, nil)
	wantError(t, rec, http.StatusConflict, "MERGE001")
}

func TestServer_MergeSchemaMismatch(t *testing.T) {
	c := newTestClient(t)
	c.upload(uploadFile{"a.csv", ordersA})
	c.upload(uploadFile{"other.csv", "x,y\n1,2\n"})

	rec := c.do(http.MethodPost, "/api/merge", nil, nil)
	wantError(t, rec, http.StatusUnprocessableEntity, "MERGE002")
}

func TestServer_AnalyzeBeforeMerge(t *testing.T) {
	c := newTestClient(t)
	rec := c.do(http.MethodPost, "/api/analyze", strings.NewReader("{}"),
		map[string]string{"Content-Type": "application/json"})
	wantError(t, rec, http.StatusConflict, "ANAL001")
}

func TestServer_AnalyzeUnknownProfile(t *testing.T) {
	c := newTestClient(t)
	rec := c.do(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"profile":"no-such-profile"}`),
		map[string]string{"Content-Type": "application/json"})
	wantError(t, rec, http.StatusBadRequest, "ANAL003")
}

func TestServer_AnalyzeMissingColumns(t *testing.T) {
	c := newTestClient(t)
	c.upload(uploadFile{"eng.csv", ordersEng})
	c.do(http.MethodPost, "/api/merge", nil, nil)

	// Session columns are still the Korean defaults, absent from this schema.
	rec := c.do(http.MethodPost, "/api/analyze", strings.NewReader("{}"),
		map[string]string{"Content-Type": "application/json"})
	wantError(t, rec, http.StatusUnprocessableEntity, "ANAL002")
}

func TestServer_ExportBeforeAnalyze(t *testing.T) {
	c := newTestClient(t)
	rec := c.do(http.MethodGet, "/api/export", nil, nil)
	wantError(t, rec, http.StatusNotFound, "EXP001")
}

// =============================================================================
// Rendering Tests
// =============================================================================

func TestServer_HomePage(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"OrderSleuth", `id="workflow"`, `id="step-upload"`, "htmx.org"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "osid" {
		t.Fatalf("cookies = %v, want one osid cookie", cookies)
	}
	if _, err := uuid.Parse(cookies[0].Value); err != nil {
		t.Errorf("session cookie %q is not a UUID", cookies[0].Value)
	}
}

func TestServer_HTMXGetsWorkflowFragment(t *testing.T) {
	c := newTestClient(t)

	body, contentType := multipartBody(t, []uploadFile{{"a.csv", ordersA}})
	rec := c.do(http.MethodPost, "/api/upload", body, map[string]string{
		"Content-Type": contentType,
		"HX-Request":   "true",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("Content-Type = %q, want html fragment", ct)
	}
	got := rec.Body.String()
	if strings.Contains(got, "<!DOCTYPE html>") {
		t.Error("htmx response is a full page, want a fragment")
	}
	for _, want := range []string{`id="step-upload"`, `id="step-merge"`, "a.csv"} {
		if !strings.Contains(got, want) {
			t.Errorf("fragment missing %q", want)
		}
	}
}

func TestServer_HTMXGetsErrorFragment(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPost, "/api/merge", nil, map[string]string{"HX-Request": "true"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("Content-Type = %q, want html fragment", ct)
	}
	got := rec.Body.String()
	if !strings.Contains(got, "alert-error") || !strings.Contains(got, "MERGE001") {
		t.Errorf("error fragment = %q, want alert with code", got)
	}
}

func TestServer_StaticFiles(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/static/app.css", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("stylesheet body is empty")
	}
}

// =============================================================================
// Info Endpoint Tests
// =============================================================================

func TestServer_Healthz(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health struct {
		Status  string                   `json:"status"`
		Actions core.ActionLimiterStatus `json:"actions"`
	}
	decodeJSON(t, rec, &health)
	if health.Status != "ok" {
		t.Errorf("status = %q, want ok", health.Status)
	}
	if health.Actions.MaxConcurrent != 4 {
		t.Errorf("actions.max_concurrent = %d, want 4", health.Actions.MaxConcurrent)
	}

	// Health checks must not mint sessions.
	if got := len(rec.Result().Cookies()); got != 0 {
		t.Errorf("healthz set %d cookies, want 0", got)
	}
}

func TestServer_ProfilesEndpoint(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodGet, "/api/profiles", nil, nil)
	var fresh profilesResponse
	decodeJSON(t, rec, &fresh)
	if len(fresh.Profiles) < 2 {
		t.Fatalf("profiles = %d, want at least the built-ins", len(fresh.Profiles))
	}
	if fresh.Suggested != "" || len(fresh.Matches) != 0 {
		t.Errorf("fresh session suggested %q with %d matches, want none before merge",
			fresh.Suggested, len(fresh.Matches))
	}

	c.upload(uploadFile{"a.csv", ordersA})
	c.do(http.MethodPost, "/api/merge", nil, nil)

	rec = c.do(http.MethodGet, "/api/profiles", nil, nil)
	var merged profilesResponse
	decodeJSON(t, rec, &merged)
	if merged.Suggested != "korean-order-export" {
		t.Errorf("suggested = %q, want korean-order-export", merged.Suggested)
	}
	if len(merged.Matches) == 0 {
		t.Error("no matches for a korean schema")
	}
}

func TestServer_ActivityEndpoint(t *testing.T) {
	c := newTestClient(t)
	c.upload(uploadFile{"a.csv", ordersA})
	c.do(http.MethodPost, "/api/merge", nil, nil)

	rec := c.do(http.MethodGet, "/api/activity", nil, nil)
	var feed struct {
		Entries []core.ActivityEntry `json:"entries"`
	}
	decodeJSON(t, rec, &feed)
	if len(feed.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(feed.Entries))
	}
	if feed.Entries[0].Kind != core.ActivityMerge || feed.Entries[1].Kind != core.ActivityUpload {
		t.Errorf("entries = [%s %s], want [merge upload]", feed.Entries[0].Kind, feed.Entries[1].Kind)
	}

	rec = c.do(http.MethodGet, "/api/activity?limit=1", nil, nil)
	decodeJSON(t, rec, &feed)
	if len(feed.Entries) != 1 {
		t.Errorf("got %d entries with limit=1, want 1", len(feed.Entries))
	}

	rec = c.do(http.MethodGet, "/api/activity", nil, map[string]string{"HX-Request": "true"})
	if !strings.Contains(rec.Body.String(), "activity-list") {
		t.Error("htmx activity response is not the list fragment")
	}
}

func TestServer_ActionsEndpoint(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodGet, "/api/actions", nil, nil)
	var status core.ActionLimiterStatus
	decodeJSON(t, rec, &status)
	if status.MaxConcurrent != 4 || status.Active != 0 {
		t.Errorf("limiter status = %+v, want idle with capacity 4", status)
	}
}

// =============================================================================
// Middleware Tests
// =============================================================================

func TestServer_SecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "default-src 'self'") || !strings.Contains(csp, "https://unpkg.com") {
		t.Errorf("CSP = %q, want self default and the htmx CDN", csp)
	}
}

func TestServer_CSPDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Security.EnableCSP = false
	srv := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("CSP = %q with the policy disabled, want none", got)
	}
}

func TestServer_RateLimiting(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 2
	srv := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	var er ErrorResponse
	decodeJSON(t, rec, &er)
	if er.Code != "RATE001" {
		t.Errorf("error code = %q, want RATE001", er.Code)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request in the window should be denied")
	}

	// Other clients have their own buckets.
	if !rl.allow("10.0.0.2") {
		t.Error("different IP should not share the bucket")
	}

	// Window expiry refills the bucket.
	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastReset = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()
	if !rl.allow("10.0.0.1") {
		t.Error("request after the window should be allowed")
	}
}

// =============================================================================
// Status Mapping Tests
// =============================================================================

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"max bytes", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"session busy", core.ErrSessionBusy, http.StatusConflict},
		{"too many actions", core.ErrTooManyActions, http.StatusServiceUnavailable},
		{"empty batch", core.ErrEmptyBatch, http.StatusConflict},
		{"no merged table", core.ErrNoMergedTable, http.StatusConflict},
		{"no result", core.ErrNoResult, http.StatusConflict},
		{"schema mismatch", &core.SchemaMismatchError{FileName: "b.csv"}, http.StatusUnprocessableEntity},
		{"missing column", &core.MissingColumnError{Columns: []string{"buyer"}}, http.StatusUnprocessableEntity},
		{"user facing", errors.New("no file provided"), http.StatusBadRequest},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("merge: %w", core.ErrSessionBusy), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := httpStatus(tt.err); got != tt.want {
				t.Errorf("httpStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsHTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTMX(req) {
		t.Error("isHTMX() = true without the header")
	}
	req.Header.Set("HX-Request", "true")
	if !isHTMX(req) {
		t.Error("isHTMX() = false with HX-Request: true")
	}
	req.Header.Set("HX-Request", "false")
	if isHTMX(req) {
		t.Error("isHTMX() = true with HX-Request: false")
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		accept      string
		contentType string
		want        bool
	}{
		{"accept json", "/", "application/json", "", true},
		{"content type json", "/", "", "application/json; charset=utf-8", true},
		{"api path", "/api/status", "", "", true},
		{"plain page", "/", "text/html", "", false},
		{"no hints", "/somewhere", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if got := wantsJSON(req); got != tt.want {
				t.Errorf("wantsJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}
