// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/proflink/internal/domain/model"
)

// RatingsDependencies defines the interface for composite rating reads.
type RatingsDependencies interface {
	CompositeRating(ctx context.Context, instructorID string) (model.CompositeRating, bool, error)
}

// RatingsHandler handles composite rating requests.
type RatingsHandler struct {
	deps RatingsDependencies
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(deps RatingsDependencies) *RatingsHandler {
	return &RatingsHandler{deps: deps}
}

// HandleGetRating handles GET /ratings/{instructor_id} requests. An
// instructor with no published links yields 404, not a zero rating.
func (h *RatingsHandler) HandleGetRating(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/ratings/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	rating, ok, err := h.deps.CompositeRating(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNoRating)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}
