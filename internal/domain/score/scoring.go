// Package score implements the four match signals, their fixed-weight
// aggregation into a composite match score, and the confidence classifier.
package score

import (
	"iter"

	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/internal/domain/normalize"
)

// Default acceptance and confidence thresholds. The acceptance floor gates
// link creation; the confidence floor is strictly higher and gates only the
// display flag.
const (
	defaultAcceptFloor     = 0.65
	defaultConfidenceFloor = 0.75
)

// DefaultMinSamples returns the per-provider minimum rating counts for a
// confident link. The survey aggregator reports per-term response counts,
// so its bar is higher.
func DefaultMinSamples() map[model.Provider]int {
	return map[model.Provider]int{
		model.ProviderRMP:      5,
		model.ProviderBluebook: 10,
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights overrides the signal weights. The override is still validated
// by NewEngine.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithAcceptFloor sets the minimum aggregate score for link creation.
func WithAcceptFloor(floor float64) Option {
	return func(e *Engine) {
		if floor > 0 && floor <= 1 {
			e.acceptFloor = floor
		}
	}
}

// WithConfidenceFloor sets the minimum aggregate score for a confident link.
func WithConfidenceFloor(floor float64) Option {
	return func(e *Engine) {
		if floor > 0 && floor <= 1 {
			e.confidenceFloor = floor
		}
	}
}

// WithMinSamples sets per-provider minimum rating counts for confidence.
func WithMinSamples(minSamples map[model.Provider]int) Option {
	return func(e *Engine) {
		for p, n := range minSamples {
			if n > 0 {
				e.minSamples[p] = n
			}
		}
	}
}

// WithVolumePivot sets the saturation pivot of the volume signal.
func WithVolumePivot(pivot int) Option {
	return func(e *Engine) {
		if pivot > 0 {
			e.volumePivot = pivot
		}
	}
}

// Engine scores (instructor, candidate) pairs and selects per-provider
// winners. An Engine is immutable after construction and safe for
// concurrent use.
type Engine struct {
	weights         Weights
	acceptFloor     float64
	confidenceFloor float64
	minSamples      map[model.Provider]int
	volumePivot     int
}

// NewEngine builds an Engine, validating the weight invariant up front.
// Returns ErrWeightInvariant when the configured weights do not sum to 1.0.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		weights:         DefaultWeights(),
		acceptFloor:     defaultAcceptFloor,
		confidenceFloor: defaultConfidenceFloor,
		minSamples:      DefaultMinSamples(),
		volumePivot:     defaultVolumePivot,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	if e.confidenceFloor < e.acceptFloor {
		e.confidenceFloor = e.acceptFloor
	}
	return e, nil
}

// Weights returns the validated signal weights in effect.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Evaluate scores one candidate against one instructor. sameLastOthers is
// the surname-collision count from the term snapshot. Missing or malformed
// data floors the affected signal to 0 rather than failing; Evaluate never
// returns an error and never panics.
func (e *Engine) Evaluate(inst model.Instructor, cand model.RatingRecord, sameLastOthers int) model.ScoreBreakdown {
	var nameScore float64
	instTok, instErr := normalize.Name(inst.DisplayName)
	candTok, candErr := normalize.Name(cand.RawName)
	if instErr == nil && candErr == nil {
		nameScore = NameScore(instTok, candTok)
	}

	subject, dept, overlap := SubjectScore(inst.SubjectCodes, cand.Department, cand.ReviewedCourses)
	uniqueness := UniquenessScore(sameLastOthers)
	volume := VolumeScore(cand.RatingCount, e.volumePivot)

	b := model.ScoreBreakdown{
		Name:          nameScore,
		Subject:       subject,
		Uniqueness:    uniqueness,
		Volume:        volume,
		DeptScore:     dept,
		CourseOverlap: overlap,
		ResponseCount: cand.RatingCount,
	}
	b.Aggregate = e.weights.Name*b.Name +
		e.weights.Subject*b.Subject +
		e.weights.Uniqueness*b.Uniqueness +
		e.weights.Volume*b.Volume
	b.Confident = e.Confident(b, cand.Provider)
	return b
}

// Confident classifies a breakdown: the aggregate must clear the confidence
// floor and the candidate's rating count must meet the provider's minimum
// sample size. Confidence gates display treatment, not link creation.
func (e *Engine) Confident(b model.ScoreBreakdown, provider model.Provider) bool {
	minCount, ok := e.minSamples[provider]
	if !ok {
		minCount = 1
	}
	return b.Aggregate >= e.confidenceFloor && b.ResponseCount >= minCount
}

// Best scores every candidate in the sequence and returns the winning link
// for (inst, provider), or ok=false when no candidate clears the acceptance
// floor — a valid, common outcome. Ties on the aggregate break by candidate
// ID ascending, so the winner is stable across runs and input orderings.
// The returned scored count covers every candidate that survived blocking.
func (e *Engine) Best(inst model.Instructor, provider model.Provider, candidates iter.Seq[model.RatingRecord], sameLastOthers int) (link model.InstructorLink, scored int, ok bool) {
	var best model.RatingRecord
	var bestBreakdown model.ScoreBreakdown
	for cand := range candidates {
		scored++
		b := e.Evaluate(inst, cand, sameLastOthers)
		if !ok || b.Aggregate > bestBreakdown.Aggregate ||
			(b.Aggregate == bestBreakdown.Aggregate && cand.ID < best.ID) {
			best, bestBreakdown, ok = cand, b, true
		}
	}
	if !ok || bestBreakdown.Aggregate < e.acceptFloor {
		return model.InstructorLink{}, scored, false
	}
	return model.InstructorLink{
		InstructorID: inst.ID,
		Provider:     provider,
		CandidateID:  best.ID,
		Term:         inst.Term,
		AvgRating:    best.AvgRating,
		RatingCount:  best.RatingCount,
		Breakdown:    bestBreakdown,
	}, scored, true
}
