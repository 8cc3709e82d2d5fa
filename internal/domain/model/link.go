package model

// ScoreBreakdown is the per-signal explanation for one scored
// (instructor, candidate) pair. The four signal fields are each in [0,1]
// and Aggregate equals their weighted sum; the UI renders these verbatim.
type ScoreBreakdown struct {
	Name          float64 `json:"name"`
	Subject       float64 `json:"subject"`
	Uniqueness    float64 `json:"uniqueness"`
	Volume        float64 `json:"volume"`
	DeptScore     float64 `json:"dept_score"`
	CourseOverlap float64 `json:"course_overlap"`
	Aggregate     float64 `json:"aggregate"`
	ResponseCount int     `json:"response_count"`
	Confident     bool    `json:"confident"`
}

// InstructorLink is the best surviving match for one (instructor, provider)
// pair in one matching run. Links are created or replaced wholesale per run,
// never partially updated.
type InstructorLink struct {
	InstructorID string         `json:"instructor_id"`
	Provider     Provider       `json:"provider"`
	CandidateID  string         `json:"candidate_id"`
	Term         string         `json:"term"`
	AvgRating    float64        `json:"avg_rating"`
	RatingCount  int            `json:"rating_count"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
}

// RatingMode tags which providers contributed to a composite rating.
type RatingMode string

// Composite rating modes.
const (
	ModeRMPOnly RatingMode = "rmpOnly"
	ModeBBOnly  RatingMode = "bbOnly"
	ModeBoth    RatingMode = "both"
)

// ProviderRating is a single provider's contribution to a composite rating.
type ProviderRating struct {
	Provider  Provider `json:"provider"`
	AvgRating float64  `json:"avg_rating"`
	Count     int      `json:"count"`
	Confident bool     `json:"confident"`
}

// CompositeRating is the published rating derived from an instructor's
// active links. It is computed on demand, never stored independently.
type CompositeRating struct {
	Score          float64          `json:"score"`
	TotalResponses int              `json:"total_responses"`
	Mode           RatingMode       `json:"mode"`
	Confident      bool             `json:"confident"`
	PerProvider    []ProviderRating `json:"per_provider"`
}

// RunResult summarizes one matching run.
type RunResult struct {
	RunID         string `json:"run_id"`
	Term          string `json:"term"`
	LinksCreated  int    `json:"links_created"`
	LinksDropped  int    `json:"links_dropped"`
	RunDurationMs int64  `json:"run_duration_ms"`
}
