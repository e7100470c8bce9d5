// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/nicodishanthj/sqlverdict/internal/common"
	"github.com/nicodishanthj/sqlverdict/internal/pipeline"
	"github.com/nicodishanthj/sqlverdict/internal/sqlite"
)

// Server exposes the comparison pipeline and the report catalog over HTTP.
// The catalog is optional; without it compare responses are returned but not
// persisted and the report routes answer 503.
type Server struct {
	router  chi.Router
	runner  *pipeline.Pipeline
	catalog *sqlite.Store
}

func NewServer(runner *pipeline.Pipeline, catalog *sqlite.Store) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("pipeline required")
	}
	s := &Server{
		router:  chi.NewRouter(),
		runner:  runner,
		catalog: catalog,
	}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("/debug/vars", expvar.Handler())

	s.router.Post("/v1/compare", s.handleCompare)
	s.router.Get("/v1/reports", s.handleListReports)
	s.router.Get("/v1/reports/{jobID}", s.handleGetReport)
	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
