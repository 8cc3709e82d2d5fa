// Package source is the boundary to the external collaborators: the
// institutional registrar sync (instructor snapshots per term) and the
// per-provider dataset scrapers. This package only loads their structured
// exports; it never scrapes.
package source

import (
	"context"

	"github.com/okian/proflink/internal/domain/model"
)

// SnapshotSource supplies the authoritative instructor snapshot for a term.
type SnapshotSource interface {
	Snapshot(ctx context.Context, term string) ([]model.Instructor, error)
}

// DatasetSource supplies the scraped rating records of one provider,
// refreshed on the provider's own cadence. All records it returns carry
// ratings normalized to the 5-point scale.
type DatasetSource interface {
	Provider() model.Provider
	Records(ctx context.Context) ([]model.RatingRecord, error)
}
