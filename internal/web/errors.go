package web

// errors.go turns pipeline errors into client responses.
//
// Every handler funnels failures through respondError, which maps the
// technical error to a core.UserMessage, logs the original with the
// request ID for correlation, and renders the user-facing part in the
// format the client expects: an htmx fragment for the flash region, a
// JSON envelope for API clients, or plain text otherwise.

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/ordersleuth/ordersleuth/internal/core"
	"github.com/ordersleuth/ordersleuth/internal/web/middleware"
	"github.com/ordersleuth/ordersleuth/internal/web/templates"
)

// ErrorResponse is the JSON error envelope. Code is for support
// lookups, Message and Action are shown to people. Error duplicates
// Message for clients that only read that field.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and answers with its
// user-facing mapping in whichever shape the client negotiated.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"session_id", middleware.SessionID(r.Context()),
		"request_id", chimw.GetReqID(r.Context()),
	)

	if isHTMX(r) {
		renderErrorFragment(w, r, userMsg, statusCode)
	} else if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
	} else {
		respondErrorHTML(w, userMsg, statusCode)
	}
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML writes a plain text error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// renderErrorFragment renders the alert partial that htmx swaps into
// the flash region (see app.js).
func renderErrorFragment(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// httpStatus picks a response status for a pipeline error. Precondition
// failures (wrong step order, busy session) map to 409 so clients can
// tell them apart from bad input.
func httpStatus(err error) int {
	var maxBytes *http.MaxBytesError
	var schema *core.SchemaMismatchError
	var missing *core.MissingColumnError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyActions):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrEmptyBatch),
		errors.Is(err, core.ErrNoMergedTable),
		errors.Is(err, core.ErrNoResult):
		return http.StatusConflict
	case errors.As(err, &schema), errors.As(err, &missing):
		return http.StatusUnprocessableEntity
	case core.IsUserFacing(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// isHTMX reports whether htmx issued the request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client should get JSON: it accepts it,
// sends it, or is on an /api/ path.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
