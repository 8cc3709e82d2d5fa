package service

import (
	"context"
	"fmt"

	"github.com/okian/proflink/internal/domain/block"
	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/internal/domain/normalize"
	"github.com/okian/proflink/internal/domain/score"
	"github.com/okian/proflink/pkg/metrics"
)

// matcher resolves one instructor across all providers. Its fields are
// read-only after construction, so one matcher is shared by every worker in
// a run.
type matcher struct {
	index      *block.Index
	collisions *score.CollisionIndex
	engine     *score.Engine
}

// Match runs blocking, scoring, and winner selection for one instructor.
// Returns at most one link per provider; dropped counts blocked candidates
// that did not win or cleared no floor.
func (m *matcher) Match(ctx context.Context, inst model.Instructor) ([]model.InstructorLink, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if _, err := normalize.Name(inst.DisplayName); err != nil {
		return nil, 0, fmt.Errorf("instructor %s: %w", inst.ID, err)
	}

	others := m.collisions.Others(inst)
	var links []model.InstructorLink
	var dropped int
	for _, provider := range model.Providers() {
		link, scored, ok := m.engine.Best(inst, provider, m.index.Candidates(inst, provider), others)
		metrics.RecordCandidatesScored(scored)
		if ok {
			links = append(links, link)
			dropped += scored - 1
		} else {
			dropped += scored
		}
	}
	return links, dropped, nil
}
