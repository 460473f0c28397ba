package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retrobench/retroviz/pkg/errors"
	"github.com/retrobench/retroviz/pkg/pipeline"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListBenchmarks returns benchmarks matching q/limit/offset.
func (s *Server) handleListBenchmarks(w http.ResponseWriter, r *http.Request) {
	benchmarks, err := s.Store.ListBenchmarks(r.Context(), listOptions(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, benchmarks)
}

// handleListTargets returns the targets of a benchmark.
func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Store.GetBenchmark(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	targets, err := s.Store.ListTargets(r.Context(), id, listOptions(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, targets)
}

// handleListRoutes returns the routes of a target, ground truth first.
func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Store.GetTarget(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	routes, err := s.Store.ListRoutes(r.Context(), id, listOptions(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, routes)
}

// handleListStocks returns stock catalogs.
func (s *Server) handleListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := s.Store.ListStocks(r.Context(), listOptions(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stocks)
}

// handleRouteGraph computes the positioned graph of a single route,
// optionally annotated against ?stock=<id>.
func (s *Server) handleRouteGraph(w http.ResponseWriter, r *http.Request) {
	opts := pipeline.Options{
		RouteID: chi.URLParam(r, "id"),
		StockID: r.URL.Query().Get("stock"),
		Prefix:  r.URL.Query().Get("prefix"),
		Refresh: r.URL.Query().Get("refresh") == "true",
		Formats: []string{pipeline.FormatJSON},
		Logger:  s.Logger,
	}

	result, err := s.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result.Graph)
}

// handleRouteDiff computes a diff graph over two routes.
// ?mode=side-by-side|overlay selects the diff, ?primary=true renders the
// reference side of a side-by-side diff.
func (s *Server) handleRouteDiff(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = pipeline.ModeOverlay
	}
	if err := pipeline.ValidateMode(mode); err != nil || mode == pipeline.ModeSingle {
		s.writeError(w, errors.New(errors.ErrCodeInvalidMode,
			"mode must be %q or %q", pipeline.ModeSideBySide, pipeline.ModeOverlay))
		return
	}

	opts := pipeline.Options{
		RouteID:      chi.URLParam(r, "id"),
		OtherRouteID: chi.URLParam(r, "otherID"),
		Mode:         mode,
		IsPrimary:    r.URL.Query().Get("primary") == "true",
		Prefix:       r.URL.Query().Get("prefix"),
		Refresh:      r.URL.Query().Get("refresh") == "true",
		Formats:      []string{pipeline.FormatJSON},
		Logger:       s.Logger,
	}

	result, err := s.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result.Graph)
}
