package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/pkg/metrics"
)

// MemoryStore keeps the active link set in memory. PublishRun swaps the
// whole snapshot under the write lock, so readers always observe a complete
// run. This is the default backend; it survives only for the process
// lifetime.
type MemoryStore struct {
	mu         sync.RWMutex
	activeTerm string
	byInst     map[string][]model.InstructorLink
	count      int
}

// NewMemory creates an empty in-memory link store.
func NewMemory() *MemoryStore {
	return &MemoryStore{byInst: make(map[string][]model.InstructorLink)}
}

// PublishRun replaces the active snapshot with the given link set.
func (s *MemoryStore) PublishRun(ctx context.Context, term string, links []model.InstructorLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Build the replacement index before taking the lock; the swap itself
	// is then O(1) and readers never see a partial set.
	byInst := make(map[string][]model.InstructorLink, len(links))
	for _, l := range links {
		byInst[l.InstructorID] = append(byInst[l.InstructorID], l)
	}
	for _, ls := range byInst {
		sort.Slice(ls, func(i, j int) bool { return ls[i].Provider < ls[j].Provider })
	}

	s.mu.Lock()
	s.activeTerm = term
	s.byInst = byInst
	s.count = len(links)
	s.mu.Unlock()

	metrics.UpdateStoreLinks(len(links))
	return nil
}

// LinksFor returns the active links for one instructor.
func (s *MemoryStore) LinksFor(ctx context.Context, instructorID string) ([]model.InstructorLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	links := s.byInst[instructorID]
	out := make([]model.InstructorLink, len(links))
	copy(out, links)
	return out, nil
}

// Link returns the active link for (instructor, provider).
func (s *MemoryStore) Link(ctx context.Context, instructorID string, provider model.Provider) (model.InstructorLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.byInst[instructorID] {
		if l.Provider == provider {
			return l, nil
		}
	}
	return model.InstructorLink{}, ErrNotFound
}

// ActiveTerm returns the term of the most recent published run.
func (s *MemoryStore) ActiveTerm(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTerm, nil
}

// Count returns the number of active links.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
