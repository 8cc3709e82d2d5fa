package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/okian/proflink/internal/adapters/http/api"
	app "github.com/okian/proflink/internal/app"
	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// stubDeps backs the handlers with canned responses.
type stubDeps struct {
	ratings    map[string]model.CompositeRating
	breakdowns map[string]model.ScoreBreakdown
	runErr     error
}

func (s *stubDeps) RunMatching(_ context.Context, term string) (model.RunResult, error) {
	if s.runErr != nil {
		return model.RunResult{}, s.runErr
	}
	return model.RunResult{RunID: "run-1", Term: term, LinksCreated: 2}, nil
}

func (s *stubDeps) CompositeRating(_ context.Context, id string) (model.CompositeRating, bool, error) {
	r, ok := s.ratings[id]
	return r, ok, nil
}

func (s *stubDeps) ScoreBreakdown(_ context.Context, id string, provider model.Provider) (model.ScoreBreakdown, bool, error) {
	b, ok := s.breakdowns[id+"/"+string(provider)]
	return b, ok, nil
}

func (s *stubDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *stubDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestRatingsEndpoint(t *testing.T) {
	Convey("Given a server with one published rating", t, func() {
		deps := &stubDeps{
			ratings: map[string]model.CompositeRating{
				"i-1": {Score: 3.9, TotalResponses: 137, Mode: model.ModeBoth, Confident: true},
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When the rating exists", func() {
			resp, err := http.Get(srv.URL + "/ratings/i-1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var rating model.CompositeRating
			So(json.NewDecoder(resp.Body).Decode(&rating), ShouldBeNil)
			So(rating.Score, ShouldEqual, 3.9)
			So(rating.Mode, ShouldEqual, model.ModeBoth)
			So(rating.TotalResponses, ShouldEqual, 137)
		})

		Convey("When the instructor has no rating", func() {
			resp, err := http.Get(srv.URL + "/ratings/i-404")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the instructor id is missing", func() {
			resp, err := http.Get(srv.URL + "/ratings/")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is wrong", func() {
			resp, err := http.Post(srv.URL+"/ratings/i-1", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBreakdownsEndpoint(t *testing.T) {
	Convey("Given a server with one published breakdown", t, func() {
		deps := &stubDeps{
			breakdowns: map[string]model.ScoreBreakdown{
				"i-1/rmp": {Name: 1.0, Subject: 1.0, Uniqueness: 0.5, Volume: 0.68, Aggregate: 0.909, Confident: true},
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When the link exists", func() {
			resp, err := http.Get(srv.URL + "/breakdowns/i-1?provider=rmp")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var b model.ScoreBreakdown
			So(json.NewDecoder(resp.Body).Decode(&b), ShouldBeNil)
			So(b.Aggregate, ShouldEqual, 0.909)
			So(b.Confident, ShouldBeTrue)
		})

		Convey("When no link exists for the pair", func() {
			resp, err := http.Get(srv.URL + "/breakdowns/i-1?provider=bluebook")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the provider is unknown", func() {
			resp, err := http.Get(srv.URL + "/breakdowns/i-1?provider=yelp")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the provider is missing entirely", func() {
			resp, err := http.Get(srv.URL + "/breakdowns/i-1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRunsEndpoint(t *testing.T) {
	Convey("Given a server wired to a run trigger", t, func() {
		deps := &stubDeps{}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When a run is triggered", func() {
			resp, err := http.Post(srv.URL+"/runs/fall-2026", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var result model.RunResult
			So(json.NewDecoder(resp.Body).Decode(&result), ShouldBeNil)
			So(result.Term, ShouldEqual, "fall-2026")
			So(result.LinksCreated, ShouldEqual, 2)
		})

		Convey("When the term is missing", func() {
			resp, err := http.Post(srv.URL+"/runs/", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a run for the term is already in flight", func() {
			deps.runErr = fmt.Errorf("%w: term fall-2026", app.ErrRunInFlight)
			resp, err := http.Post(srv.URL+"/runs/fall-2026", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("When the run fails for another reason", func() {
			deps.runErr = errors.New("snapshot unavailable")
			resp, err := http.Post(srv.URL+"/runs/fall-2026", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the method is GET", func() {
			resp, err := http.Get(srv.URL + "/runs/fall-2026")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStatsAndHealthEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv := newTestServer(&stubDeps{})
		defer srv.Close()

		Convey("When stats are requested", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var stats map[string]interface{}
			So(json.NewDecoder(resp.Body).Decode(&stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("When the health endpoint is scraped", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
