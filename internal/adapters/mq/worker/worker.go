// Package worker parses and stores queued import jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/scores/internal/domain/csvparse"
	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/pkg/logger"
	"github.com/okian/scores/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job abstracts what workers read off the queue.
type Job = model.ImportJob

// Parser turns a score sheet into validated records.
type Parser interface {
	Parse(content string) ([]csvparse.Record, error)
}

// Adder stores a batch of scores atomically.
type Adder interface {
	Add(ctx context.Context, scores []model.Score) ([]model.Score, error)
}

// Reporter receives job lifecycle updates.
type Reporter interface {
	Started(ctx context.Context, jobID string)
	Finished(ctx context.Context, jobID string, imported int, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	parser   Parser
	adder    Adder
	reporter Reporter
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, parser Parser, adder Adder, reporter Reporter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		parser:   parser,
		adder:    adder,
		reporter: reporter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get()
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Warn(ctx, "import failed",
					logger.String("job_id", job.ID),
					logger.String("source", job.Source),
					logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process parses and stores one job and reports the outcome.
func (w *InMemoryWorker) process(ctx context.Context, job Job) (err error) { //nolint:gocritic // hugeParam: Job must be passed by value for channel semantics
	start := time.Now()
	metrics.RecordQueueDequeue()
	w.reporter.Started(ctx, job.ID)

	imported := 0
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		w.reporter.Finished(ctx, job.ID, imported, err)
	}()

	records, err := w.parser.Parse(job.Content)
	if err != nil {
		metrics.RecordWorkerError()
		var pe *csvparse.ParseError
		if errors.As(err, &pe) {
			metrics.RecordParseFailure(pe.Kind.String())
		}
		metrics.RecordErrorByComponent("worker", "parse_error")
		return err
	}
	metrics.RecordRowsParsed(len(records))

	stored, err := w.adder.Add(ctx, ToScores(records))
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store scores: %w", err)
	}
	imported = len(stored)
	return nil
}

// ToScores converts parsed records into unsaved scores.
func ToScores(records []csvparse.Record) []model.Score {
	out := make([]model.Score, len(records))
	for i, r := range records {
		out[i] = model.Score{FirstName: r.FirstName, SecondName: r.SecondName, Value: r.Score}
	}
	return out
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses
// runtime.NumCPU().
func NewPool(workerCount int, queue Queue, parser Parser, adder Adder, reporter Reporter, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get()
	}

	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(queue, parser, adder, reporter,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
	}
	p.logger = p.logger.Named("worker-pool")

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop signals every worker to stop after its current job, without draining
// the queue.
func (p *Pool) Stop(ctx context.Context) {
	for i, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker stop timed out", logger.Int("worker_id", i))
		}
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			return fmt.Errorf("drain timed out: %w", shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
