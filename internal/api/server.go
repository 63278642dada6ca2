// Package api exposes the HTTP interface for the search service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"fastwebsearch/internal/metrics"
	"fastwebsearch/internal/search"
)

// Searcher runs query batches.
type Searcher interface {
	MultiSearch(ctx context.Context, queries []string, maxResults int) map[string][]search.Result
}

// Scraper runs URL batches.
type Scraper interface {
	FetchAll(ctx context.Context, urls []string) []search.ScrapeResult
}

// Server wires HTTP handlers to the orchestrator and fetch pipeline.
type Server struct {
	router   chi.Router
	searcher Searcher
	scraper  Scraper
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(searcher Searcher, scraper Scraper, logger *zap.Logger) *Server {
	s := &Server{
		searcher: searcher,
		scraper:  scraper,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/scrape", s.handleScrape)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Queries    []string `json:"queries"`
	MaxResults int      `json:"max_results"`
}

type searchResponse struct {
	Results map[string][]search.Result `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, "queries must not be empty")
		return
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 10
	}

	results := s.searcher.MultiSearch(r.Context(), req.Queries, req.MaxResults)
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

type scrapeRequest struct {
	URLs []string `json:"urls"`
}

type scrapeResponse struct {
	Results []search.ScrapeResult `json:"results"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls must not be empty")
		return
	}

	results := s.scraper.FetchAll(r.Context(), req.URLs)
	writeJSON(w, http.StatusOK, scrapeResponse{Results: results})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
