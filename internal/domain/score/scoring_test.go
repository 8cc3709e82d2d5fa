package score_test

import (
	"errors"
	"testing"

	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/internal/domain/score"
	. "github.com/smartystreets/goconvey/convey"
)

func seq(records ...model.RatingRecord) func(yield func(model.RatingRecord) bool) {
	return func(yield func(model.RatingRecord) bool) {
		for _, r := range records {
			if !yield(r) {
				return
			}
		}
	}
}

func TestWeightsValidate(t *testing.T) {
	Convey("Given signal weight configurations", t, func() {
		Convey("When the defaults are used", func() {
			So(score.DefaultWeights().Validate(), ShouldBeNil)
		})

		Convey("When the weights do not sum to 1.0", func() {
			w := score.Weights{Name: 0.5, Subject: 0.3, Uniqueness: 0.15, Volume: 0.15}
			err := w.Validate()
			So(err, ShouldNotBeNil)
			So(errors.Is(err, score.ErrWeightInvariant), ShouldBeTrue)
		})

		Convey("When a weight is negative", func() {
			w := score.Weights{Name: 1.2, Subject: -0.2, Uniqueness: 0, Volume: 0}
			err := w.Validate()
			So(err, ShouldNotBeNil)
			So(errors.Is(err, score.ErrWeightInvariant), ShouldBeTrue)
		})
	})
}

func TestNewEngine(t *testing.T) {
	Convey("Given engine construction", t, func() {
		Convey("When defaults are used", func() {
			e, err := score.NewEngine()
			So(err, ShouldBeNil)
			So(e.Weights(), ShouldResemble, score.DefaultWeights())
		})

		Convey("When the configured weights violate the invariant, construction fails", func() {
			_, err := score.NewEngine(score.WithWeights(score.Weights{Name: 0.9, Subject: 0.2}))
			So(err, ShouldNotBeNil)
			So(errors.Is(err, score.ErrWeightInvariant), ShouldBeTrue)
		})
	})
}

func TestEngineEvaluate(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine, err := score.NewEngine()
		So(err, ShouldBeNil)

		inst := model.Instructor{
			ID:           "i-1",
			DisplayName:  "Doe, Jane A.",
			SubjectCodes: []string{"CS"},
			Term:         "fall-2026",
		}

		Convey("When the candidate agrees on every signal", func() {
			cand := model.RatingRecord{
				ID:          "rmp-1",
				Provider:    model.ProviderRMP,
				RawName:     "Jane Doe",
				Department:  "CS",
				AvgRating:   4.2,
				RatingCount: 42,
			}
			b := engine.Evaluate(inst, cand, 0)

			So(b.Name, ShouldEqual, 1.0)
			So(b.Subject, ShouldEqual, 1.0)
			So(b.Uniqueness, ShouldEqual, 1.0)
			So(b.Volume, ShouldAlmostEqual, 0.84, 1e-9)
			So(b.Aggregate, ShouldAlmostEqual, 0.992, 1e-9)
			So(b.Confident, ShouldBeTrue)
		})

		Convey("When the candidate has only an initial, a foreign department, and two ratings", func() {
			cand := model.RatingRecord{
				ID:          "rmp-2",
				Provider:    model.ProviderRMP,
				RawName:     "J. Doe",
				Department:  "MATH",
				AvgRating:   3.0,
				RatingCount: 2,
			}
			b := engine.Evaluate(inst, cand, 0)

			So(b.Name, ShouldEqual, 0.9)
			So(b.Subject, ShouldEqual, 0)
			So(b.Uniqueness, ShouldEqual, 1.0)
			So(b.Volume, ShouldAlmostEqual, 0.2, 1e-9)
			So(b.Aggregate, ShouldAlmostEqual, 0.61, 1e-9)
			So(b.Confident, ShouldBeFalse)
		})

		Convey("When five other instructors share the surname", func() {
			cand := model.RatingRecord{
				ID:          "rmp-5",
				Provider:    model.ProviderRMP,
				RawName:     "Jane Doe",
				Department:  "CS",
				RatingCount: 42,
			}
			unique := engine.Evaluate(inst, cand, 0)
			crowded := engine.Evaluate(inst, cand, 5)

			Convey("Then only the uniqueness signal drops, and the aggregate with it", func() {
				So(crowded.Uniqueness, ShouldAlmostEqual, 1.0/6.0, 1e-12)
				So(crowded.Uniqueness, ShouldBeLessThan, unique.Uniqueness)
				So(crowded.Aggregate, ShouldBeLessThan, unique.Aggregate)
				So(crowded.Name, ShouldEqual, unique.Name)
				So(crowded.Subject, ShouldEqual, unique.Subject)
				So(crowded.Volume, ShouldEqual, unique.Volume)
			})
		})

		Convey("When the candidate name is malformed", func() {
			cand := model.RatingRecord{
				ID:          "rmp-3",
				Provider:    model.ProviderRMP,
				RawName:     "...",
				Department:  "CS",
				RatingCount: 10,
			}
			b := engine.Evaluate(inst, cand, 0)

			So(b.Name, ShouldEqual, 0)
			So(b.Subject, ShouldEqual, 1.0)
			So(b.Aggregate, ShouldBeLessThan, 0.65)
		})

		Convey("Then the aggregate honors the weights exactly", func() {
			cand := model.RatingRecord{
				ID:          "rmp-4",
				Provider:    model.ProviderRMP,
				RawName:     "Jane Doe",
				Department:  "CS",
				ReviewedCourses: []string{
					"CS101", "MATH231",
				},
				RatingCount: 8,
			}
			b := engine.Evaluate(inst, cand, 1)
			w := engine.Weights()
			want := w.Name*b.Name + w.Subject*b.Subject + w.Uniqueness*b.Uniqueness + w.Volume*b.Volume
			So(b.Aggregate, ShouldAlmostEqual, want, 1e-12)
			So(b.DeptScore, ShouldEqual, 1.0)
			So(b.CourseOverlap, ShouldEqual, 0.5)
		})
	})
}

func TestEngineConfident(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine, err := score.NewEngine()
		So(err, ShouldBeNil)

		Convey("When the aggregate clears the floor but samples are thin", func() {
			b := model.ScoreBreakdown{Aggregate: 0.9, ResponseCount: 4}
			So(engine.Confident(b, model.ProviderRMP), ShouldBeFalse)
		})

		Convey("When both the floor and the sample minimum are met", func() {
			b := model.ScoreBreakdown{Aggregate: 0.9, ResponseCount: 5}
			So(engine.Confident(b, model.ProviderRMP), ShouldBeTrue)
		})

		Convey("When the survey provider needs more samples", func() {
			b := model.ScoreBreakdown{Aggregate: 0.9, ResponseCount: 9}
			So(engine.Confident(b, model.ProviderBluebook), ShouldBeFalse)
			b.ResponseCount = 10
			So(engine.Confident(b, model.ProviderBluebook), ShouldBeTrue)
		})

		Convey("When the aggregate sits between the floors", func() {
			b := model.ScoreBreakdown{Aggregate: 0.70, ResponseCount: 50}
			So(engine.Confident(b, model.ProviderRMP), ShouldBeFalse)
		})
	})
}

func TestEngineBest(t *testing.T) {
	Convey("Given a default engine and one instructor", t, func() {
		engine, err := score.NewEngine()
		So(err, ShouldBeNil)

		inst := model.Instructor{
			ID:           "i-1",
			DisplayName:  "Doe, Jane",
			SubjectCodes: []string{"CS"},
			Term:         "fall-2026",
		}

		strong := model.RatingRecord{
			ID: "rmp-strong", Provider: model.ProviderRMP,
			RawName: "Jane Doe", Department: "CS", AvgRating: 4.5, RatingCount: 42,
		}
		weak := model.RatingRecord{
			ID: "rmp-weak", Provider: model.ProviderRMP,
			RawName: "Mark Doe", Department: "MATH", AvgRating: 2.0, RatingCount: 2,
		}

		Convey("When one candidate clearly wins", func() {
			link, scored, ok := engine.Best(inst, model.ProviderRMP, seq(weak, strong), 0)
			So(ok, ShouldBeTrue)
			So(scored, ShouldEqual, 2)
			So(link.CandidateID, ShouldEqual, "rmp-strong")
			So(link.InstructorID, ShouldEqual, "i-1")
			So(link.Term, ShouldEqual, "fall-2026")
			So(link.AvgRating, ShouldEqual, 4.5)
			So(link.RatingCount, ShouldEqual, 42)
		})

		Convey("When no candidate clears the acceptance floor", func() {
			_, scored, ok := engine.Best(inst, model.ProviderRMP, seq(weak), 0)
			So(ok, ShouldBeFalse)
			So(scored, ShouldEqual, 1)
		})

		Convey("When there are no candidates at all", func() {
			_, scored, ok := engine.Best(inst, model.ProviderRMP, seq(), 0)
			So(ok, ShouldBeFalse)
			So(scored, ShouldEqual, 0)
		})

		Convey("When two candidates tie exactly, the lower ID wins", func() {
			a := strong
			a.ID = "rmp-a"
			b := strong
			b.ID = "rmp-b"

			link, _, ok := engine.Best(inst, model.ProviderRMP, seq(b, a), 0)
			So(ok, ShouldBeTrue)
			So(link.CandidateID, ShouldEqual, "rmp-a")

			Convey("And the winner is independent of candidate order", func() {
				reordered, _, ok := engine.Best(inst, model.ProviderRMP, seq(a, b), 0)
				So(ok, ShouldBeTrue)
				So(reordered.CandidateID, ShouldEqual, link.CandidateID)
			})
		})
	})
}

func TestCollisionIndex(t *testing.T) {
	Convey("Given a term snapshot with shared surnames", t, func() {
		insts := []model.Instructor{
			{ID: "i-1", DisplayName: "Doe, Jane"},
			{ID: "i-2", DisplayName: "Doe, John"},
			{ID: "i-3", DisplayName: "Smith, Ada"},
			{ID: "i-4", DisplayName: "..."}, // not normalizable
		}
		ci := score.NewCollisionIndex(insts)

		Convey("Then collision counts exclude the instructor itself", func() {
			So(ci.Others(insts[0]), ShouldEqual, 1)
			So(ci.Others(insts[1]), ShouldEqual, 1)
			So(ci.Others(insts[2]), ShouldEqual, 0)
		})

		Convey("Then unnormalizable names contribute nothing", func() {
			So(ci.Others(insts[3]), ShouldEqual, 0)
		})

		Convey("Then counts are surname-based after normalization", func() {
			So(ci.Others(model.Instructor{DisplayName: "Dr. Jane Doe"}), ShouldEqual, 1)
		})
	})
}

