package score

import "errors"

// Sentinel kinds for scoring configuration errors.
var (
	ErrWeightInvariant = errors.New("signal weights must sum to 1.0")
)
