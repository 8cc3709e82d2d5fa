// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	app "github.com/okian/proflink/internal/app"
	"github.com/okian/proflink/internal/domain/model"
)

// RunsDependencies defines the interface for triggering matching runs.
type RunsDependencies interface {
	RunMatching(ctx context.Context, term string) (model.RunResult, error)
}

// RunsHandler handles matching run triggers.
type RunsHandler struct {
	deps RunsDependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps RunsDependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

// HandlePostRun handles POST /runs/{term} requests. The run executes
// synchronously; the admin trigger is a batch operation, not a hot path.
// A concurrent run for the same term yields 409.
func (h *RunsHandler) HandlePostRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	term := strings.TrimPrefix(r.URL.Path, "/runs/")
	if term == "" || strings.Contains(term, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	result, err := h.deps.RunMatching(r.Context(), term)
	if err != nil {
		if errors.Is(err, app.ErrRunInFlight) {
			writeError(w, http.StatusConflict, "run_in_flight", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "run_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
