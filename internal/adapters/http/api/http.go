// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/proflink/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// RunMatching triggers one batch matching run for a term.
	RunMatching(ctx context.Context, term string) (model.RunResult, error)

	// CompositeRating returns the published rating for an instructor;
	// ok=false when none exists.
	CompositeRating(ctx context.Context, instructorID string) (model.CompositeRating, bool, error)

	// ScoreBreakdown returns the signal explanation behind one link;
	// ok=false when no link is published for the pair.
	ScoreBreakdown(ctx context.Context, instructorID string, provider model.Provider) (model.ScoreBreakdown, bool, error)
}

// Server wires HTTP routes for the matching API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	runsHandler      *RunsHandler
	ratingsHandler   *RatingsHandler
	breakdownHandler *BreakdownHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		runsHandler:      NewRunsHandler(deps),
		ratingsHandler:   NewRatingsHandler(deps),
		breakdownHandler: NewBreakdownHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/runs/", MetricsMiddleware(s.runsHandler.HandlePostRun, "runs"))
	mux.HandleFunc("/ratings/", MetricsMiddleware(s.ratingsHandler.HandleGetRating, "ratings"))
	mux.HandleFunc("/breakdowns/", MetricsMiddleware(s.breakdownHandler.HandleGetBreakdown, "breakdowns"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
