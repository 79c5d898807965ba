// Package api exposes persona analyses over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/persona/internal/collect"
	"github.com/kalambet/persona/internal/persona"
	"github.com/kalambet/persona/internal/reddit"
	"github.com/kalambet/persona/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, username string, opts persona.Options) (persona.Result, error)
}

// ReportStore reads and deletes saved reports.
type ReportStore interface {
	ListReports(username string, limit int) ([]storage.Report, error)
	GetReport(id string) (storage.Report, error)
	DeleteReport(id string) error
}

// CacheController exposes the fetch cache.
type CacheController interface {
	Stats() collect.Stats
	ClearCache() int
}

type AppDeps struct {
	Analyzer Analyzer
	Reports  ReportStore
	Cache    CacheController
	Token    string
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Username     string `json:"username"`
	PostLimit    int    `json:"post_limit"`
	CommentLimit int    `json:"comment_limit"`
	Save         *bool  `json:"save"`
}

// NewAppHandler returns the HTTP API. /health is always open; every other
// route requires deps.Token when it is set.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/analyze", handleAnalyze(deps))
		r.Get("/reports", handleListReports(deps))
		r.Get("/reports/{id}", handleGetReport(deps))
		r.Get("/reports/{id}/text", handleGetReportText(deps))
		r.Delete("/reports/{id}", handleDeleteReport(deps))
		r.Get("/cache", handleCacheStats(deps))
		r.Delete("/cache", handleClearCache(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleAnalyze(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Username == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "username is required")
			return
		}
		if req.PostLimit < 0 || req.CommentLimit < 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "limits must not be negative")
			return
		}

		opts := persona.Options{
			PostLimit:    req.PostLimit,
			CommentLimit: req.CommentLimit,
			SkipSave:     req.Save != nil && !*req.Save,
		}
		res, err := deps.Analyzer.Analyze(r.Context(), req.Username, opts)
		if err != nil {
			status, errType := analysisErrorStatus(err)
			httpError(w, status, errType, "%v", err)
			return
		}

		writeJSON(w, res)
	}
}

// analysisErrorStatus maps an analysis failure to an HTTP status and error type.
func analysisErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, persona.ErrInvalidUsername):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, reddit.ErrUserNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, persona.ErrNoData):
		return http.StatusNotFound, "no_data"
	case errors.Is(err, reddit.ErrUnauthorized):
		return http.StatusBadGateway, "upstream_auth_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusBadGateway, "api_error"
	}
}

func handleListReports(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		username := r.URL.Query().Get("username")

		reports, err := deps.Reports.ListReports(username, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list reports: %v", err)
			return
		}
		if reports == nil {
			reports = []storage.Report{}
		}

		writeJSON(w, reports)
	}
}

func handleGetReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := loadReport(w, deps, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		writeJSON(w, rep)
	}
}

func handleGetReportText(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := loadReport(w, deps, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(rep.Body))
	}
}

func loadReport(w http.ResponseWriter, deps AppDeps, id string) (storage.Report, bool) {
	rep, err := deps.Reports.GetReport(id)
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, "not_found", "report not found")
		return storage.Report{}, false
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "failed to get report: %v", err)
		return storage.Report{}, false
	}
	return rep, true
}

func handleDeleteReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Reports.DeleteReport(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "report not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete report: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

func handleCacheStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, deps.Cache.Stats())
	}
}

func handleClearCache(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := deps.Cache.ClearCache()
		writeJSON(w, map[string]any{"status": "cleared", "removed": n})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
