// Package fixtures generates deterministic snapshot and dataset files
// for exercising the matcher against realistic, noisy provider data.
package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/pkg/logger"
)

// Rating scales the generated datasets declare.
const (
	rmpScale      = 5.0
	bluebookScale = 100.0
)

// Generation ranges.
const (
	ratingMin        = 1.5
	ratingRange      = 3.5
	rmpCountMin      = 1
	rmpCountRange    = 60
	bbCountMin       = 3
	bbCountRange     = 120
	coursesPerRecord = 3
)

// Noise case selectors for name mangling.
const (
	caseCleanName = iota
	caseFlippedName
	caseInitialOnly
	caseHonorific
	caseFoldedMarks
	caseDroppedMiddle
	nameCases
)

// Config controls fixture generation.
type Config struct {
	Term        string  // term directory name, e.g. fall-2026
	OutDir      string  // root data directory
	Instructors int     // instructors in the snapshot
	Orphans     int     // provider records with no snapshot counterpart
	Malformed   int     // rows with missing required fields, per dataset
	CoverageRMP float64 // fraction of instructors present in the rmp dataset
	CoverageBB  float64 // fraction of instructors present in the bluebook dataset
	Seed        int64   // rand seed; equal seeds produce equal files
}

// DefaultConfig returns a config sized for local smoke runs.
func DefaultConfig() Config {
	return Config{
		Term:        "fall-2026",
		OutDir:      "data",
		Instructors: 200,
		Orphans:     20,
		Malformed:   3,
		CoverageRMP: 0.7,
		CoverageBB:  0.9,
		Seed:        1,
	}
}

var firstNames = []string{
	"Jane", "John", "María", "Wei", "Aisha", "Liam", "Chloé", "Ravi",
	"Søren", "Emma", "Noah", "Olga", "Tomás", "Grace", "Ahmed", "Yuki",
}

var lastNames = []string{
	"Doe", "Smith", "García", "Chen", "Khan", "O'Brien", "Müller", "Patel",
	"Nguyen", "Johnson", "Brown", "Ivanova", "Silva", "Lee", "Hassan", "Tanaka",
}

var honorifics = []string{"Dr.", "Prof.", "Mr.", "Ms."}

var departments = []string{"CS", "MATH", "PHYS", "CHEM", "BIO", "ECON", "HIST", "ENGL"}

// foldedForms strips the diacritics some scrapers lose in transit.
var foldedForms = map[string]string{
	"María": "Maria", "Chloé": "Chloe", "Søren": "Soren", "Tomás": "Tomas",
	"García": "Garcia", "Müller": "Muller", "Ivanova": "Ivanova",
}

type snapshotFile struct {
	Term        string             `yaml:"term"`
	Instructors []model.Instructor `yaml:"instructors"`
}

type datasetFile struct {
	Provider model.Provider       `yaml:"provider"`
	Scale    float64              `yaml:"scale"`
	Records  []model.RatingRecord `yaml:"records"`
}

// instructor pairs a snapshot row with the canonical name parts the
// datasets mangle.
type instructor struct {
	row   model.Instructor
	first string
	mid   string
	last  string
	dept  string
}

// Generate writes <OutDir>/<Term>/instructors.yaml plus one dataset file
// per provider under OutDir. Output is a pure function of Config.
func Generate(ctx context.Context, cfg Config) error {
	log := logger.Named("fixtures")
	rng := rand.New(rand.NewSource(cfg.Seed))

	insts := make([]instructor, cfg.Instructors)
	for i := range insts {
		first := firstNames[rng.Intn(len(firstNames))]
		// Reuse a small surname pool so some last names collide and the
		// uniqueness signal has work to do.
		last := lastNames[rng.Intn(len(lastNames))]
		mid := ""
		if rng.Intn(2) == 0 {
			mid = string(rune('A' + rng.Intn(26)))
		}
		dept := departments[rng.Intn(len(departments))]
		display := last + ", " + first
		if mid != "" {
			display += " " + mid + "."
		}
		insts[i] = instructor{
			row: model.Instructor{
				ID:           fmt.Sprintf("i-%04d", i+1),
				DisplayName:  display,
				SubjectCodes: []string{dept},
				Term:         cfg.Term,
			},
			first: first,
			mid:   mid,
			last:  last,
			dept:  dept,
		}
	}

	snap := snapshotFile{Term: cfg.Term, Instructors: make([]model.Instructor, len(insts))}
	for i, in := range insts {
		snap.Instructors[i] = in.row
	}
	snapDir := filepath.Join(cfg.OutDir, cfg.Term)
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := writeYAML(filepath.Join(snapDir, "instructors.yaml"), snap); err != nil {
		return err
	}

	rmp := datasetFile{
		Provider: model.ProviderRMP,
		Scale:    rmpScale,
		Records:  buildRecords(rng, insts, cfg, model.ProviderRMP),
	}
	if err := writeYAML(filepath.Join(cfg.OutDir, string(model.ProviderRMP)+".yaml"), rmp); err != nil {
		return err
	}

	bb := datasetFile{
		Provider: model.ProviderBluebook,
		Scale:    bluebookScale,
		Records:  buildRecords(rng, insts, cfg, model.ProviderBluebook),
	}
	if err := writeYAML(filepath.Join(cfg.OutDir, string(model.ProviderBluebook)+".yaml"), bb); err != nil {
		return err
	}

	log.Info(ctx, "fixtures written",
		logger.String("dir", cfg.OutDir),
		logger.String("term", cfg.Term),
		logger.Int("instructors", len(insts)),
		logger.Int("rmpRecords", len(rmp.Records)),
		logger.Int("bluebookRecords", len(bb.Records)),
	)
	return nil
}

// buildRecords produces one provider dataset: covered instructors under a
// mangled name, a handful of orphans, and a few malformed rows.
func buildRecords(rng *rand.Rand, insts []instructor, cfg Config, provider model.Provider) []model.RatingRecord {
	coverage := cfg.CoverageRMP
	scale := rmpScale
	countMin, countRange := rmpCountMin, rmpCountRange
	if provider == model.ProviderBluebook {
		coverage = cfg.CoverageBB
		scale = bluebookScale
		countMin, countRange = bbCountMin, bbCountRange
	}

	var out []model.RatingRecord
	for i, in := range insts {
		if rng.Float64() >= coverage {
			continue
		}
		out = append(out, model.RatingRecord{
			ID:              fmt.Sprintf("%s-%04d", provider, i+1),
			RawName:         mangleName(rng, in),
			Department:      in.dept,
			AvgRating:       (ratingMin + rng.Float64()*ratingRange) * scale / rmpScale,
			RatingCount:     countMin + rng.Intn(countRange),
			LegacyID:        fmt.Sprintf("legacy-%s-%04d", provider, i+1),
			ReviewedCourses: courses(rng, in.dept),
		})
	}
	for i := 0; i < cfg.Orphans; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		dept := departments[rng.Intn(len(departments))]
		out = append(out, model.RatingRecord{
			ID:          fmt.Sprintf("%s-orphan-%03d", provider, i+1),
			RawName:     first + " " + last,
			Department:  dept,
			AvgRating:   (ratingMin + rng.Float64()*ratingRange) * scale / rmpScale,
			RatingCount: countMin + rng.Intn(countRange),
		})
	}
	for i := 0; i < cfg.Malformed; i++ {
		out = append(out, model.RatingRecord{
			ID:        fmt.Sprintf("%s-bad-%03d", provider, i+1),
			RawName:   "", // dropped by the loader
			AvgRating: ratingMin,
		})
	}
	return out
}

// mangleName renders an instructor's name the way a scraper might have
// seen it.
func mangleName(rng *rand.Rand, in instructor) string {
	first, last := in.first, in.last
	switch rng.Intn(nameCases) {
	case caseFlippedName:
		name := last + ", " + first
		if in.mid != "" {
			name += " " + in.mid + "."
		}
		return name
	case caseInitialOnly:
		return first[:1] + ". " + last
	case caseHonorific:
		return honorifics[rng.Intn(len(honorifics))] + " " + first + " " + last
	case caseFoldedMarks:
		if f, ok := foldedForms[first]; ok {
			first = f
		}
		if f, ok := foldedForms[last]; ok {
			last = f
		}
		return first + " " + last
	case caseDroppedMiddle:
		return first + " " + last
	default:
		if in.mid != "" {
			return first + " " + in.mid + ". " + last
		}
		return first + " " + last
	}
}

// courses fabricates course codes in the instructor's own department.
func courses(rng *rand.Rand, dept string) []string {
	n := 1 + rng.Intn(coursesPerRecord)
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", dept, 100+rng.Intn(400))
	}
	return out
}

func writeYAML(path string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
