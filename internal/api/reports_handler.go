// File path: internal/api/reports_handler.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/nicodishanthj/sqlverdict/internal/sqlite"
)

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("report catalog not configured"))
		return
	}
	target := strings.TrimSpace(r.URL.Query().Get("target"))
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}
	summaries, err := s.catalog.ListReports(r.Context(), target, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list reports: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": summaries})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("report catalog not configured"))
		return
	}
	jobID := chi.URLParam(r, "jobID")
	report, err := s.catalog.GetReport(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, sqlite.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Errorf("load report: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
