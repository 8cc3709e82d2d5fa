// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/proflink/internal/domain/model"
)

// BreakdownDependencies defines the interface for score breakdown reads.
type BreakdownDependencies interface {
	ScoreBreakdown(ctx context.Context, instructorID string, provider model.Provider) (model.ScoreBreakdown, bool, error)
}

// BreakdownHandler handles score breakdown requests.
type BreakdownHandler struct {
	deps BreakdownDependencies
}

// NewBreakdownHandler creates a new breakdown handler.
func NewBreakdownHandler(deps BreakdownDependencies) *BreakdownHandler {
	return &BreakdownHandler{deps: deps}
}

// HandleGetBreakdown handles GET /breakdowns/{instructor_id}?provider=rmp
// requests. The response is the exact weighted-signal explanation the UI
// renders.
func (h *BreakdownHandler) HandleGetBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/breakdowns/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	provider := model.Provider(r.URL.Query().Get("provider"))
	if !provider.Valid() {
		writeError(w, http.StatusBadRequest, "bad_request", ErrUnknownProvider)
		return
	}
	breakdown, ok, err := h.deps.ScoreBreakdown(r.Context(), id, provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNoLink)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}
