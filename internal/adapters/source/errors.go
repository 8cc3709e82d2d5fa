package source

import "errors"

// Sentinel kinds for dataset loading errors.
var (
	ErrSnapshotUnavailable = errors.New("instructor snapshot unavailable")
	ErrDatasetUnavailable  = errors.New("rating dataset unavailable")
)
