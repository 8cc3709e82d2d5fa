package score

import (
	"fmt"
	"math"
)

// weightSumTolerance absorbs float parsing noise; the configured weights
// must still sum to 1.0 for all practical purposes.
const weightSumTolerance = 1e-9

// Weights holds the fixed linear-combination weights for the four match
// signals. The defaults are the documented production weights; any override
// must still satisfy Validate.
type Weights struct {
	Name       float64 `koanf:"name" json:"name"`
	Subject    float64 `koanf:"subject" json:"subject"`
	Uniqueness float64 `koanf:"uniqueness" json:"uniqueness"`
	Volume     float64 `koanf:"volume" json:"volume"`
}

// DefaultWeights returns the documented production weights:
// name 0.50, subject 0.30, uniqueness 0.15, volume 0.05.
func DefaultWeights() Weights {
	return Weights{Name: 0.50, Subject: 0.30, Uniqueness: 0.15, Volume: 0.05}
}

// Validate enforces the weight invariant: every weight non-negative and the
// four summing to exactly 1.0 (within float tolerance). Violation is a
// configuration programming error and must fail at startup, never at match
// time.
func (w Weights) Validate() error {
	if w.Name < 0 || w.Subject < 0 || w.Uniqueness < 0 || w.Volume < 0 {
		return fmt.Errorf("%w: negative weight in %+v", ErrWeightInvariant, w)
	}
	sum := w.Name + w.Subject + w.Uniqueness + w.Volume
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1.0", ErrWeightInvariant, sum)
	}
	return nil
}
