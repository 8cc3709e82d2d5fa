package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/okian/proflink/internal/adapters/repository"
	app "github.com/okian/proflink/internal/app"
	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/internal/domain/score"
	"github.com/okian/proflink/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// stubSnapshot serves a fixed instructor snapshot.
type stubSnapshot struct {
	instructors []model.Instructor
	err         error
}

func (s *stubSnapshot) Snapshot(_ context.Context, term string) ([]model.Instructor, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Instructor, len(s.instructors))
	copy(out, s.instructors)
	for i := range out {
		out[i].Term = term
	}
	return out, nil
}

// stubDataset serves a fixed provider dataset. When gate is non-nil, Records
// blocks until the gate closes.
type stubDataset struct {
	provider model.Provider
	records  []model.RatingRecord
	err      error
	gate     chan struct{}
	loading  chan struct{}
}

func (s *stubDataset) Provider() model.Provider { return s.provider }

func (s *stubDataset) Records(_ context.Context) ([]model.RatingRecord, error) {
	if s.loading != nil {
		close(s.loading)
		s.loading = nil
	}
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.RatingRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// failingStore rejects every publish.
type failingStore struct {
	*repository.MemoryStore
}

func (f *failingStore) PublishRun(context.Context, string, []model.InstructorLink) error {
	return fmt.Errorf("%w: disk full", repository.ErrPublishFailed)
}

func testInstructors() []model.Instructor {
	return []model.Instructor{
		{ID: "i-1", DisplayName: "Doe, Jane A.", SubjectCodes: []string{"CS"}},
		{ID: "i-2", DisplayName: "Smith, Ada", SubjectCodes: []string{"MATH"}},
		{ID: "i-3", DisplayName: "Nguyen, Minh", SubjectCodes: []string{"HIST"}},
	}
}

func testDatasets() (*stubDataset, *stubDataset) {
	rmp := &stubDataset{
		provider: model.ProviderRMP,
		records: []model.RatingRecord{
			{ID: "rmp-1", Provider: model.ProviderRMP, RawName: "Jane Doe", Department: "CS", AvgRating: 4.2, RatingCount: 17},
			{ID: "rmp-2", Provider: model.ProviderRMP, RawName: "Ada Smith", Department: "MATH", AvgRating: 3.1, RatingCount: 6},
			{ID: "rmp-9", Provider: model.ProviderRMP, RawName: "Zed Unrelated", Department: "ART", AvgRating: 1.0, RatingCount: 1},
		},
	}
	bb := &stubDataset{
		provider: model.ProviderBluebook,
		records: []model.RatingRecord{
			{ID: "bb-1", Provider: model.ProviderBluebook, RawName: "Doe, Jane", Department: "CS", AvgRating: 3.8, RatingCount: 120},
		},
	}
	return rmp, bb
}

func newService(store repository.Store, opts ...app.Option) *app.Service {
	rmp, bb := testDatasets()
	base := []app.Option{
		app.WithStore(store),
		app.WithSnapshotSource(&stubSnapshot{instructors: testInstructors()}),
		app.WithDatasetSources(rmp, bb),
		app.WithWorkerCount(2),
	}
	return app.New(append(base, opts...)...)
}

func TestServiceStart(t *testing.T) {
	Convey("Given service construction", t, func() {
		ctx := context.Background()

		Convey("When sources are missing", func() {
			svc := app.New(app.WithStore(repository.NewMemory()))
			err := svc.Start(ctx)
			So(errors.Is(err, app.ErrNotConfigured), ShouldBeTrue)
		})

		Convey("When the configured weights violate the invariant", func() {
			svc := newService(repository.NewMemory(),
				app.WithEngineOptions(score.WithWeights(score.Weights{Name: 0.9, Subject: 0.9})))

			Convey("Then startup fails before any matching happens", func() {
				err := svc.Start(ctx)
				So(errors.Is(err, score.ErrWeightInvariant), ShouldBeTrue)
			})
		})

		Convey("When the configuration is complete", func() {
			svc := newService(repository.NewMemory())
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then a second Start is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("Then stats report the running state", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["workerCount"], ShouldEqual, 2)
			})
		})
	})
}

func TestRunMatching(t *testing.T) {
	Convey("Given a started service over a known snapshot", t, func() {
		ctx := context.Background()
		store := repository.NewMemory()
		svc := newService(store)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When matching has not run", func() {
			_, ok, err := svc.CompositeRating(ctx, "i-1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("When a run completes", func() {
			result, err := svc.RunMatching(ctx, "fall-2026")
			So(err, ShouldBeNil)
			So(result.RunID, ShouldNotBeEmpty)
			So(result.Term, ShouldEqual, "fall-2026")

			Convey("Then the well-evidenced instructor links on both providers", func() {
				rating, ok, err := svc.CompositeRating(ctx, "i-1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(rating.Mode, ShouldEqual, model.ModeBoth)
				So(rating.TotalResponses, ShouldEqual, 137)
				// (4.2*17 + 3.8*120) / 137
				So(rating.Score, ShouldAlmostEqual, (4.2*17+3.8*120)/137, 1e-9)
			})

			Convey("Then a single-provider instructor gets a single-source rating", func() {
				rating, ok, err := svc.CompositeRating(ctx, "i-2")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(rating.Mode, ShouldEqual, model.ModeRMPOnly)
				So(rating.Score, ShouldEqual, 3.1)
			})

			Convey("Then an instructor with no plausible match stays unlinked", func() {
				_, ok, err := svc.CompositeRating(ctx, "i-3")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("Then the breakdown behind a link is retrievable", func() {
				b, ok, err := svc.ScoreBreakdown(ctx, "i-1", model.ProviderRMP)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(b.Name, ShouldEqual, 1.0)
				So(b.Subject, ShouldEqual, 1.0)
				So(b.Aggregate, ShouldBeGreaterThan, 0.65)
			})

			Convey("Then no breakdown exists for an unlinked pair", func() {
				_, ok, err := svc.ScoreBreakdown(ctx, "i-3", model.ProviderRMP)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("And rerunning on identical inputs is idempotent", func() {
				before, err := store.LinksFor(ctx, "i-1")
				So(err, ShouldBeNil)

				again, err := svc.RunMatching(ctx, "fall-2026")
				So(err, ShouldBeNil)
				So(again.LinksCreated, ShouldEqual, result.LinksCreated)
				So(again.LinksDropped, ShouldEqual, result.LinksDropped)

				after, err := store.LinksFor(ctx, "i-1")
				So(err, ShouldBeNil)
				So(after, ShouldResemble, before)
			})
		})

		Convey("When the service was never started", func() {
			cold := newService(repository.NewMemory())
			_, err := cold.RunMatching(ctx, "fall-2026")
			So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestRunMatchingDeterminism(t *testing.T) {
	Convey("Given the same inputs in two dataset orders", t, func() {
		ctx := context.Background()

		run := func(reverse bool) map[string][]model.InstructorLink {
			rmp, bb := testDatasets()
			if reverse {
				for i, j := 0, len(rmp.records)-1; i < j; i, j = i+1, j-1 {
					rmp.records[i], rmp.records[j] = rmp.records[j], rmp.records[i]
				}
			}
			store := repository.NewMemory()
			svc := app.New(
				app.WithStore(store),
				app.WithSnapshotSource(&stubSnapshot{instructors: testInstructors()}),
				app.WithDatasetSources(rmp, bb),
				app.WithWorkerCount(4),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			_, err := svc.RunMatching(ctx, "fall-2026")
			So(err, ShouldBeNil)

			out := make(map[string][]model.InstructorLink)
			for _, inst := range testInstructors() {
				links, err := store.LinksFor(ctx, inst.ID)
				So(err, ShouldBeNil)
				out[inst.ID] = links
			}
			return out
		}

		Convey("Then the published links are identical", func() {
			So(run(true), ShouldResemble, run(false))
		})
	})
}

func TestRunMatchingFailures(t *testing.T) {
	Convey("Given failure modes around a run", t, func() {
		ctx := context.Background()

		Convey("When the snapshot source is unavailable", func() {
			svc := newService(repository.NewMemory(),
				app.WithSnapshotSource(&stubSnapshot{err: errors.New("registrar down")}))
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			_, err := svc.RunMatching(ctx, "fall-2026")
			So(err, ShouldNotBeNil)
		})

		Convey("When a dataset source is unavailable", func() {
			rmp, _ := testDatasets()
			broken := &stubDataset{provider: model.ProviderBluebook, err: errors.New("scrape failed")}
			svc := app.New(
				app.WithStore(repository.NewMemory()),
				app.WithSnapshotSource(&stubSnapshot{instructors: testInstructors()}),
				app.WithDatasetSources(rmp, broken),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the whole run fails rather than publishing a partial set", func() {
				_, err := svc.RunMatching(ctx, "fall-2026")
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the publish itself fails", func() {
			svc := newService(&failingStore{MemoryStore: repository.NewMemory()})
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			_, err := svc.RunMatching(ctx, "fall-2026")
			So(errors.Is(err, repository.ErrPublishFailed), ShouldBeTrue)
		})

		Convey("When a run for the same term is already in flight", func() {
			rmp, bb := testDatasets()
			rmp.gate = make(chan struct{})
			rmp.loading = make(chan struct{})
			loading := rmp.loading

			svc := app.New(
				app.WithStore(repository.NewMemory()),
				app.WithSnapshotSource(&stubSnapshot{instructors: testInstructors()}),
				app.WithDatasetSources(rmp, bb),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			firstDone := make(chan error, 1)
			go func() {
				_, err := svc.RunMatching(ctx, "fall-2026")
				firstDone <- err
			}()
			<-loading

			Convey("Then the second invocation is rejected", func() {
				_, err := svc.RunMatching(ctx, "fall-2026")
				So(errors.Is(err, app.ErrRunInFlight), ShouldBeTrue)

				close(rmp.gate)
				So(<-firstDone, ShouldBeNil)
			})
		})
	})
}
