package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matthewbaird/pedigree/internal/editor"
	"github.com/matthewbaird/pedigree/internal/menu"
	"github.com/matthewbaird/pedigree/internal/pedigree"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("writeJSON encode error", "err", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt returns a positive integer query parameter, capped at max.
func queryInt(r *http.Request, name string, max int) (int, bool) {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return 0, false
	}
	return min(n, max), true
}

// queryTime returns an RFC 3339 query parameter.
func queryTime(r *http.Request, name string) *time.Time {
	t, err := time.Parse(time.RFC3339, r.URL.Query().Get(name))
	if err != nil {
		return nil
	}
	return &t
}

// domainErrorToHTTP maps session errors to HTTP responses.
func (s *Server) domainErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pedigree.ErrNodeNotFound), errors.Is(err, menu.ErrUnknownField):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, pedigree.ErrNodeExists):
		writeError(w, http.StatusConflict, "NODE_EXISTS", err.Error())
	case errors.Is(err, menu.ErrFieldInactive), errors.Is(err, menu.ErrFieldDisabled):
		writeError(w, http.StatusConflict, "FIELD_LOCKED", err.Error())
	case errors.Is(err, menu.ErrNotBound):
		writeError(w, http.StatusConflict, "MENU_NOT_BOUND", err.Error())
	case errors.Is(err, menu.ErrInvalidInput), errors.Is(err, menu.ErrFreeText),
		errors.Is(err, menu.ErrOptionUnavailable), errors.Is(err, menu.ErrNotEditable):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, editor.ErrNoFamily):
		writeError(w, http.StatusPreconditionFailed, "NO_FAMILY", err.Error())
	default:
		s.logger.Error("internal error", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
