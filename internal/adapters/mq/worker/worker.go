// Package worker runs the per-instructor matching fan-out. Workers share
// only read-only inputs (block index, collision index, scoring engine), so
// no locking is needed; each instructor's result is merged through the
// results channel.
package worker

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/proflink/internal/adapters/mq/queue"
	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/pkg/logger"
	"github.com/okian/proflink/pkg/metrics"
)

// Matcher resolves one instructor against every provider dataset.
type Matcher interface {
	// Match returns the winning links (at most one per provider) and the
	// count of blocked candidates that did not become links.
	Match(ctx context.Context, inst model.Instructor) (links []model.InstructorLink, dropped int, err error)
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Result is one instructor's matching outcome. Err marks an instructor
// that was skipped; a skipped instructor never aborts the run.
type Result struct {
	InstructorID string
	Links        []model.InstructorLink
	Dropped      int
	Err          error
}

// Worker consumes tasks and emits one Result per instructor.
type Worker struct {
	queue   Queue
	matcher Matcher
	results chan<- Result
	name    string
	done    chan struct{}
	logger  logger.Logger
}

// NewWorker creates a worker writing into results.
func NewWorker(q Queue, matcher Matcher, results chan<- Result, opts ...Option) *Worker {
	w := &Worker{
		queue:   q,
		matcher: matcher,
		results: results,
		name:    "worker",
		done:    make(chan struct{}),
		logger:  logger.Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes tasks until the queue drains or ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			w.process(ctx, task)
		}
	}
}

func (w *Worker) process(ctx context.Context, task queue.Task) {
	start := time.Now()
	links, dropped, err := w.matcher.Match(ctx, task.Instructor)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		// Instructor-level failures degrade that instructor, not the run.
		metrics.RecordMatchError("worker")
		w.logger.Warn(ctx, "skipping instructor",
			logger.String("instructor_id", task.Instructor.ID),
			logger.Error(err),
		)
	}

	res := Result{
		InstructorID: task.Instructor.ID,
		Links:        links,
		Dropped:      dropped,
		Err:          err,
	}
	select {
	case w.results <- res:
	case <-ctx.Done():
	}
}

// Pool manages a fixed-size set of workers for one matching run.
type Pool struct {
	workers []*Worker
	logger  logger.Logger
}

// NewPool creates workerCount workers over the shared queue. A
// non-positive count defaults to the available CPUs.
func NewPool(workerCount int, q Queue, matcher Matcher, results chan<- Result) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(q, matcher, results, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has exited; after Wait returns no further
// results will be written.
func (p *Pool) Wait() {
	for _, w := range p.workers {
		<-w.done
	}
	metrics.UpdateWorkerCount(0)
}
