package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/pkg/logger"
)

// publishedScale is the rating scale everything is normalized to at load.
const publishedScale = 5.0

// snapshotFile mirrors the registrar export:
//
//	term: fall-2026
//	instructors:
//	  - id: i-1
//	    display_name: "Doe, Jane A."
//	    subject_codes: [CS]
type snapshotFile struct {
	Term        string             `yaml:"term"`
	Instructors []model.Instructor `yaml:"instructors"`
}

// datasetFile mirrors a provider scraper export. Scale declares the
// provider's native rating scale (bluebook surveys report on 100).
type datasetFile struct {
	Provider model.Provider       `yaml:"provider"`
	Scale    float64              `yaml:"scale"`
	Records  []model.RatingRecord `yaml:"records"`
}

// FileSnapshotSource reads instructor snapshots from
// <dir>/<term>/instructors.yaml.
type FileSnapshotSource struct {
	dir string
	log logger.Logger
}

// NewFileSnapshotSource creates a snapshot source rooted at dir.
func NewFileSnapshotSource(dir string) *FileSnapshotSource {
	return &FileSnapshotSource{dir: dir, log: logger.Named("source")}
}

// Snapshot loads and validates the instructor snapshot for term.
func (s *FileSnapshotSource) Snapshot(ctx context.Context, term string) ([]model.Instructor, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, term, "instructors.yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	var f snapshotFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: parse snapshot for %s: %v", ErrSnapshotUnavailable, term, err)
	}

	out := make([]model.Instructor, 0, len(f.Instructors))
	for _, inst := range f.Instructors {
		if strings.TrimSpace(inst.ID) == "" || strings.TrimSpace(inst.DisplayName) == "" {
			s.log.Warn(ctx, "skipping malformed instructor row",
				logger.String("term", term),
				logger.String("id", inst.ID),
			)
			continue
		}
		inst.Term = term
		out = append(out, inst)
	}
	return out, nil
}

// FileDatasetSource reads one provider's rating records from
// <dir>/<provider>.yaml, normalizing ratings to the 5-point scale.
type FileDatasetSource struct {
	dir      string
	provider model.Provider
	log      logger.Logger
}

// NewFileDatasetSource creates a dataset source for provider rooted at dir.
func NewFileDatasetSource(dir string, provider model.Provider) *FileDatasetSource {
	return &FileDatasetSource{dir: dir, provider: provider, log: logger.Named("source")}
}

// Provider returns the provider this source serves.
func (s *FileDatasetSource) Provider() model.Provider {
	return s.provider
}

// Records loads, validates, and normalizes one provider dataset. Malformed
// rows are logged and skipped; they never abort the load.
func (s *FileDatasetSource) Records(ctx context.Context) ([]model.RatingRecord, error) {
	path := filepath.Join(s.dir, string(s.provider)+".yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	var f datasetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrDatasetUnavailable, path, err)
	}
	if f.Provider != "" && f.Provider != s.provider {
		return nil, fmt.Errorf("%w: %s declares provider %q", ErrDatasetUnavailable, path, f.Provider)
	}
	scale := f.Scale
	if scale <= 0 {
		scale = publishedScale
	}

	out := make([]model.RatingRecord, 0, len(f.Records))
	for _, rec := range f.Records {
		if strings.TrimSpace(rec.ID) == "" || strings.TrimSpace(rec.RawName) == "" {
			s.log.Warn(ctx, "skipping malformed rating record",
				logger.String("provider", string(s.provider)),
				logger.String("id", rec.ID),
			)
			continue
		}
		rec.Provider = s.provider
		if rec.RatingCount < 0 {
			rec.RatingCount = 0
		}
		rec.AvgRating = rec.AvgRating * publishedScale / scale
		if rec.AvgRating < 0 {
			rec.AvgRating = 0
		}
		if rec.AvgRating > publishedScale {
			rec.AvgRating = publishedScale
		}
		out = append(out, rec)
	}
	return out, nil
}
