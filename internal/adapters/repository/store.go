// Package repository defines the instructor-link store interface and its
// in-memory and SQLite implementations.
package repository

import (
	"context"

	"github.com/okian/proflink/internal/domain/model"
)

// Store provides read/write access to published instructor links. A
// matching run publishes its full replacement link set for a term in one
// atomic operation; readers either see the prior set or the new one, never
// a mix.
type Store interface {
	// PublishRun atomically replaces the active link set for term.
	// On error nothing is published and the prior set stays visible.
	PublishRun(ctx context.Context, term string, links []model.InstructorLink) error

	// LinksFor returns the active links for an instructor, at most one per
	// provider, ordered by provider. An unknown instructor yields an empty
	// slice, not an error.
	LinksFor(ctx context.Context, instructorID string) ([]model.InstructorLink, error)

	// Link returns the active link for (instructor, provider).
	// Returns ErrNotFound when no such link is published.
	Link(ctx context.Context, instructorID string, provider model.Provider) (model.InstructorLink, error)

	// ActiveTerm returns the most recently published term, or "" when no
	// run has published yet.
	ActiveTerm(ctx context.Context) (string, error)

	// Count returns the number of active links.
	Count(ctx context.Context) int

	// Close releases store resources.
	Close() error
}
