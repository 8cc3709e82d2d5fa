package fixtures_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/proflink/internal/adapters/source"
	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/internal/fixtures"
	"github.com/okian/proflink/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestGenerate(t *testing.T) {
	Convey("Given a small fixture configuration", t, func() {
		ctx := context.Background()
		cfg := fixtures.DefaultConfig()
		cfg.OutDir = t.TempDir()
		cfg.Instructors = 30
		cfg.Orphans = 5
		cfg.Malformed = 2

		So(fixtures.Generate(ctx, cfg), ShouldBeNil)

		Convey("Then all three files exist", func() {
			for _, name := range []string{
				filepath.Join(cfg.Term, "instructors.yaml"),
				"rmp.yaml",
				"bluebook.yaml",
			} {
				_, err := os.Stat(filepath.Join(cfg.OutDir, name))
				So(err, ShouldBeNil)
			}
		})

		Convey("Then the snapshot loads through the file source", func() {
			src := source.NewFileSnapshotSource(cfg.OutDir)
			insts, err := src.Snapshot(ctx, cfg.Term)
			So(err, ShouldBeNil)
			So(insts, ShouldHaveLength, cfg.Instructors)
			So(insts[0].Term, ShouldEqual, cfg.Term)
		})

		Convey("Then datasets load with malformed rows dropped and scales normalized", func() {
			for _, provider := range model.Providers() {
				src := source.NewFileDatasetSource(cfg.OutDir, provider)
				recs, err := src.Records(ctx)
				So(err, ShouldBeNil)
				So(len(recs), ShouldBeGreaterThan, 0)
				// Covered records plus orphans; the malformed rows are gone.
				So(len(recs), ShouldBeLessThanOrEqualTo, cfg.Instructors+cfg.Orphans)

				for _, rec := range recs {
					So(rec.Provider, ShouldEqual, provider)
					So(rec.AvgRating, ShouldBeBetweenOrEqual, 0, 5)
				}
			}
		})
	})
}

func TestGenerateDeterminism(t *testing.T) {
	Convey("Given two generations with the same seed", t, func() {
		ctx := context.Background()

		gen := func(dir string, seed int64) {
			cfg := fixtures.DefaultConfig()
			cfg.OutDir = dir
			cfg.Instructors = 25
			cfg.Seed = seed
			So(fixtures.Generate(ctx, cfg), ShouldBeNil)
		}

		a, b := t.TempDir(), t.TempDir()
		gen(a, 7)
		gen(b, 7)

		Convey("Then the output files are byte-identical", func() {
			for _, name := range []string{
				filepath.Join("fall-2026", "instructors.yaml"),
				"rmp.yaml",
				"bluebook.yaml",
			} {
				ra, err := os.ReadFile(filepath.Join(a, name))
				So(err, ShouldBeNil)
				rb, err := os.ReadFile(filepath.Join(b, name))
				So(err, ShouldBeNil)
				So(string(ra), ShouldEqual, string(rb))
			}
		})

		Convey("And a different seed produces different data", func() {
			c := t.TempDir()
			gen(c, 8)
			ra, err := os.ReadFile(filepath.Join(a, "rmp.yaml"))
			So(err, ShouldBeNil)
			rc, err := os.ReadFile(filepath.Join(c, "rmp.yaml"))
			So(err, ShouldBeNil)
			So(string(rc), ShouldNotEqual, string(ra))
		})
	})
}
