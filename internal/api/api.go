// Package api serves the JSON HTTP API for browsing benchmarks and fetching
// computed route graphs.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/retrobench/retroviz/internal/store"
	"github.com/retrobench/retroviz/pkg/errors"
	"github.com/retrobench/retroviz/pkg/pipeline"
)

// Server bundles the store, the pipeline runner, and the logger behind the
// HTTP handlers.
type Server struct {
	Store  *store.Store
	Runner *pipeline.Runner
	Logger *log.Logger
}

// NewServer creates a server. A nil logger falls back to the default logger.
func NewServer(st *store.Store, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		Store:  st,
		Runner: runner,
		Logger: logger,
	}
}

// Router builds the chi router with middleware and all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/benchmarks", s.handleListBenchmarks)
		r.Get("/benchmarks/{id}/targets", s.handleListTargets)
		r.Get("/targets/{id}/routes", s.handleListRoutes)
		r.Get("/routes/{id}/graph", s.handleRouteGraph)
		r.Get("/routes/{id}/diff/{otherID}", s.handleRouteDiff)
		r.Get("/stocks", s.handleListStocks)
	})

	return r
}

// ============================== HELPERS ===================================

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("encode response", "error", err)
	}
}

// errorResponse is the JSON shape of all error responses.
type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// writeError maps structured error codes to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrCodeInvalidInput),
		errors.Is(err, errors.ErrCodeInvalidRoute),
		errors.Is(err, errors.ErrCodeInvalidFormat),
		errors.Is(err, errors.ErrCodeInvalidMode):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  errors.GetCode(err),
	})
}

// listOptions extracts q/limit/offset query parameters.
func listOptions(r *http.Request) store.ListOptions {
	opts := store.ListOptions{Query: r.URL.Query().Get("q")}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}
	return opts
}
