// Package service provides the core matching service that implements the
// dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/proflink/internal/adapters/mq/queue"
	"github.com/okian/proflink/internal/adapters/mq/worker"
	"github.com/okian/proflink/internal/adapters/repository"
	"github.com/okian/proflink/internal/adapters/source"
	"github.com/okian/proflink/internal/domain/block"
	"github.com/okian/proflink/internal/domain/combine"
	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/internal/domain/score"
	"github.com/okian/proflink/pkg/logger"
	"github.com/okian/proflink/pkg/metrics"
)

// Service orchestrates matching runs over the worker pool and serves reads
// from the published link store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	snapshots source.SnapshotSource
	datasets  []source.DatasetSource
	engine    *score.Engine

	// Configuration
	workerCount  int
	blockScanCap int
	engineOpts   []score.Option

	// State
	started  bool
	inflight map[string]struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the link store backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSnapshotSource sets the instructor snapshot source.
func WithSnapshotSource(src source.SnapshotSource) Option {
	return func(s *Service) {
		if src != nil {
			s.snapshots = src
		}
	}
}

// WithDatasetSources sets the provider dataset sources.
func WithDatasetSources(srcs ...source.DatasetSource) Option {
	return func(s *Service) {
		s.datasets = srcs
	}
}

// WithWorkerCount sets the number of matching workers per run.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithBlockScanCap bounds the blocking fallback full scan.
func WithBlockScanCap(cap int) Option {
	return func(s *Service) {
		if cap > 0 {
			s.blockScanCap = cap
		}
	}
}

// WithEngineOptions forwards options to the scoring engine built in Start.
func WithEngineOptions(opts ...score.Option) Option {
	return func(s *Service) {
		s.engineOpts = opts
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		inflight:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates configuration and initializes the service. The weight
// invariant is checked here so a bad configuration fails at startup, never
// at match time.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("matching")
	}

	engine, err := score.NewEngine(s.engineOpts...)
	if err != nil {
		return err
	}
	s.engine = engine

	if s.store == nil {
		s.store = repository.NewMemory()
		s.logger.Info(ctx, "using in-memory link store")
	}
	if s.snapshots == nil || len(s.datasets) == 0 {
		return ErrNotConfigured
	}

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.workerCount),
		logger.Int("datasets", len(s.datasets)),
	)
	return nil
}

// Stop shuts the service down and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing link store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "matching service stopped")
}

// beginRun registers term as in flight; false when a run for the same term
// is already executing.
func (s *Service) beginRun(term string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return false
	}
	if _, busy := s.inflight[term]; busy {
		return false
	}
	s.inflight[term] = struct{}{}
	return true
}

func (s *Service) endRun(term string) {
	s.mu.Lock()
	delete(s.inflight, term)
	s.mu.Unlock()
}

// RunMatching executes one matching run for term: load inputs, fan
// instructors out over the worker pool, and publish the full replacement
// link set atomically. Re-invocation on identical inputs is idempotent.
// Individual instructor failures are logged and skipped; a publish failure
// is fatal to the run and must be retried by the external scheduler.
func (s *Service) RunMatching(ctx context.Context, term string) (model.RunResult, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return model.RunResult{}, ErrNotStarted
	}
	if !s.beginRun(term) {
		return model.RunResult{}, fmt.Errorf("%w: term %s", ErrRunInFlight, term)
	}
	defer s.endRun(term)

	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.Named("run")
	log.Info(ctx, "matching run starting",
		logger.String("run_id", runID),
		logger.String("term", term),
	)
	metrics.RecordRunStarted()

	instructors, records, err := s.loadInputs(ctx, term)
	if err != nil {
		metrics.RecordRunFailed()
		return model.RunResult{}, err
	}

	m := &matcher{
		index:      block.New(records, block.WithFallbackScanCap(s.blockScanCap)),
		collisions: score.NewCollisionIndex(instructors),
		engine:     s.engine,
	}

	links, dropped, skipped, err := s.fanOut(ctx, instructors, m)
	if err != nil {
		metrics.RecordRunFailed()
		return model.RunResult{}, err
	}

	// Deterministic publish order regardless of worker scheduling.
	sort.Slice(links, func(i, j int) bool {
		if links[i].InstructorID != links[j].InstructorID {
			return links[i].InstructorID < links[j].InstructorID
		}
		return links[i].Provider < links[j].Provider
	})

	publishStart := time.Now()
	if err := s.store.PublishRun(ctx, term, links); err != nil {
		metrics.RecordRunFailed()
		return model.RunResult{}, fmt.Errorf("run %s: %w", runID, err)
	}
	metrics.RecordPublishLatency(float64(time.Since(publishStart).Milliseconds()))

	elapsed := time.Since(start)
	metrics.RecordRunCompleted()
	metrics.ObserveRunDuration(elapsed.Seconds())
	metrics.RecordLinksCreated(len(links))
	metrics.RecordLinksDropped(dropped)

	log.Info(ctx, "matching run published",
		logger.String("run_id", runID),
		logger.String("term", term),
		logger.Int("instructors", len(instructors)),
		logger.Int("links_created", len(links)),
		logger.Int("links_dropped", dropped),
		logger.Int("instructors_skipped", skipped),
	)
	return model.RunResult{
		RunID:         runID,
		Term:          term,
		LinksCreated:  len(links),
		LinksDropped:  dropped,
		RunDurationMs: elapsed.Milliseconds(),
	}, nil
}

// loadInputs fetches the term snapshot and every provider dataset. Input
// unavailability is fatal to the run: a half-loaded dataset would silently
// unlink instructors that matched last run.
func (s *Service) loadInputs(ctx context.Context, term string) ([]model.Instructor, []model.RatingRecord, error) {
	instructors, err := s.snapshots.Snapshot(ctx, term)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot for %s: %w", term, err)
	}
	var records []model.RatingRecord
	for _, ds := range s.datasets {
		recs, err := ds.Records(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s dataset: %w", ds.Provider(), err)
		}
		records = append(records, recs...)
	}
	return instructors, records, nil
}

// fanOut distributes instructors over the worker pool and merges results.
// Nothing is returned for publishing if ctx is canceled mid-run.
func (s *Service) fanOut(ctx context.Context, instructors []model.Instructor, m *matcher) (links []model.InstructorLink, dropped, skipped int, err error) {
	q := queue.New(queue.WithCapacity(len(instructors) + 1))
	results := make(chan worker.Result, len(instructors))

	pool := worker.NewPool(s.workerCount, q, m, results)
	pool.Start(ctx)

	for _, inst := range instructors {
		if !q.Enqueue(ctx, queue.Task{Instructor: inst}) {
			break // canceled or full; workers drain what was queued
		}
	}
	_ = q.Close()

	go func() {
		pool.Wait()
		close(results)
	}()

	for res := range results {
		if res.Err != nil {
			skipped++
			metrics.RecordInstructorSkipped()
			continue
		}
		links = append(links, res.Links...)
		dropped += res.Dropped
	}

	if ctx.Err() != nil {
		return nil, 0, 0, fmt.Errorf("matching run aborted: %w", ctx.Err())
	}
	return links, dropped, skipped, nil
}

// CompositeRating derives the published rating for one instructor from its
// active links. ok=false means no rating exists (absent, not zero).
func (s *Service) CompositeRating(ctx context.Context, instructorID string) (model.CompositeRating, bool, error) {
	links, err := s.store.LinksFor(ctx, instructorID)
	if err != nil {
		return model.CompositeRating{}, false, err
	}
	rating, ok := combine.Combine(links)
	return rating, ok, nil
}

// ScoreBreakdown returns the signal breakdown behind the active link for
// (instructor, provider); ok=false when no such link is published.
func (s *Service) ScoreBreakdown(ctx context.Context, instructorID string, provider model.Provider) (model.ScoreBreakdown, bool, error) {
	link, err := s.store.Link(ctx, instructorID, provider)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ScoreBreakdown{}, false, nil
		}
		return model.ScoreBreakdown{}, false, err
	}
	return link.Breakdown, true, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
	}
	if s.started {
		term, _ := s.store.ActiveTerm(ctx)
		stats["activeTerm"] = term
		stats["activeLinks"] = s.store.Count(ctx)
	}
	return stats
}
