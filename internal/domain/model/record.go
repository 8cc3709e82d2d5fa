// Package model contains domain records passed between pipeline stages.
package model

// Provider identifies one of the two external rating sources.
type Provider string

// Known providers. RMP is the public review aggregator; Bluebook is the
// institutional course-survey aggregator.
const (
	ProviderRMP      Provider = "rmp"
	ProviderBluebook Provider = "bluebook"
)

// Providers returns all known providers in deterministic order.
func Providers() []Provider {
	return []Provider{ProviderBluebook, ProviderRMP}
}

// Valid reports whether p names a known provider.
func (p Provider) Valid() bool {
	return p == ProviderRMP || p == ProviderBluebook
}

// Instructor is one row of the authoritative institutional snapshot for a
// term. Snapshots are replaced wholesale on each institutional sync, so an
// Instructor is immutable for the lifetime of a matching run.
type Instructor struct {
	ID           string   `json:"id" yaml:"id"`
	DisplayName  string   `json:"display_name" yaml:"display_name"`
	SubjectCodes []string `json:"subject_codes" yaml:"subject_codes"`
	Term         string   `json:"term" yaml:"term"`
}

// RatingRecord is one scraped rating aggregate from a single provider.
// Optional provider fields are explicit: LegacyID is empty and
// ReviewedCourses is nil when the provider does not supply them.
type RatingRecord struct {
	ID              string   `json:"id" yaml:"id"`
	Provider        Provider `json:"provider" yaml:"provider"`
	RawName         string   `json:"raw_name" yaml:"raw_name"`
	Department      string   `json:"department" yaml:"department"`
	AvgRating       float64  `json:"avg_rating" yaml:"avg_rating"`
	RatingCount     int      `json:"rating_count" yaml:"rating_count"`
	LegacyID        string   `json:"legacy_id,omitempty" yaml:"legacy_id,omitempty"`
	ReviewedCourses []string `json:"reviewed_courses,omitempty" yaml:"reviewed_courses,omitempty"`
}
