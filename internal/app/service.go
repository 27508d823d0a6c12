// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the console tool.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/okian/scores/internal/adapters/mq/queue"
	"github.com/okian/scores/internal/adapters/mq/worker"
	"github.com/okian/scores/internal/adapters/repository"
	"github.com/okian/scores/internal/adapters/source"
	"github.com/okian/scores/internal/domain/csvparse"
	"github.com/okian/scores/internal/domain/dedupe"
	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/internal/domain/ranking"
	"github.com/okian/scores/pkg/logger"
	"github.com/okian/scores/pkg/metrics"
)

// Service implements the API dependencies for the scores system.
type Service struct {
	mu sync.RWMutex
	// submitMu orders the dedupe claim, job registration and enqueue.
	submitMu sync.Mutex

	store   repository.Store
	source  *source.FileSource
	parser  *csvparse.Parser
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	jobs    *jobRegistry

	workerCount int
	queueSize   int
	dedupeSize  int
	maxBytes    int64

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the score store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of import workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued imports.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many import checksums are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxBytes caps the size of files read by ProcessFile.
func WithMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Synchronous operations work immediately;
// asynchronous imports need Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1_000,
		dedupeSize:  10_000,
		maxBytes:    10 << 20,
		jobs:        newJobRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewTreapStore()
	}
	s.source = source.NewFileSource(source.WithMaxBytes(s.maxBytes))
	s.parser = csvparse.New(csvparse.WithWarningFunc(s.onWarning))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// onWarning is the parser's diagnostic sink.
func (s *Service) onWarning(w csvparse.Warning) {
	metrics.RecordBlankLine()
	s.logger.Warn(context.Background(), w.Message, logger.Int("line", w.Line))
}

// Start launches the import worker pool. Cancelling ctx does not stop the
// workers; call Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.parser, s.store, s.jobs,
		worker.WithPoolLogger(s.logger))
	// Workers outlive ctx; Stop ends them once the queue is drained.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "scores service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains queued imports and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.started {
		s.logger.Info(ctx, "stopping scores service")
		if err := s.pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		s.started = false
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Parse validates content with the service parser and records metrics.
func (s *Service) Parse(ctx context.Context, content string) ([]csvparse.Record, error) {
	start := time.Now()
	records, err := s.parser.Parse(content)
	metrics.RecordParseLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		var pe *csvparse.ParseError
		if errors.As(err, &pe) {
			metrics.RecordParseFailure(pe.Kind.String())
			s.logger.Debug(ctx, "parse failed",
				logger.String("kind", pe.Kind.String()),
				logger.Int("line", pe.Line),
				logger.String("message", pe.Message))
		}
		return nil, err
	}
	metrics.RecordRowsParsed(len(records))
	return records, nil
}

// Upload parses content and stores every record, or nothing on failure.
func (s *Service) Upload(ctx context.Context, content string) ([]model.Score, error) {
	records, err := s.Parse(ctx, content)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Add(ctx, worker.ToScores(records))
	if err != nil {
		return nil, fmt.Errorf("store scores: %w", err)
	}
	s.logger.Info(ctx, "scores uploaded", logger.Int("count", len(stored)))
	return stored, nil
}

// Preview validates content without storing, collecting every failure.
func (s *Service) Preview(ctx context.Context, content string) csvparse.Report {
	rep := s.parser.Validate(content)
	for _, e := range rep.Errors {
		metrics.RecordParseFailure(e.Kind.String())
	}
	return rep
}

// AddScore validates and stores a single score, applying the same name and
// range rules as the parser.
func (s *Service) AddScore(ctx context.Context, sc model.Score) (model.Score, error) {
	sc.FirstName = strings.TrimSpace(sc.FirstName)
	sc.SecondName = strings.TrimSpace(sc.SecondName)

	switch {
	case sc.FirstName == "":
		return model.Score{}, fmt.Errorf("%w: %w", ErrInvalidScore, csvparse.ErrEmptyFirstName)
	case sc.SecondName == "":
		return model.Score{}, fmt.Errorf("%w: %w", ErrInvalidScore, csvparse.ErrEmptySecondName)
	case sc.Value < csvparse.MinScore || sc.Value > csvparse.MaxScore:
		return model.Score{}, fmt.Errorf("%w: %w: %d", ErrInvalidScore, csvparse.ErrScoreOutOfRange, sc.Value)
	}

	stored, err := s.store.Add(ctx, []model.Score{sc})
	if err != nil {
		return model.Score{}, fmt.Errorf("store score: %w", err)
	}
	return stored[0], nil
}

// All returns every stored score, highest first.
func (s *Service) All(ctx context.Context) ([]model.Score, error) {
	return s.store.All(ctx)
}

// Top returns the scores holding the maximum value.
func (s *Service) Top(ctx context.Context) ([]model.Score, error) {
	return s.store.Top(ctx)
}

// Find returns the first score stored under the given names.
func (s *Service) Find(ctx context.Context, firstName, secondName string) (model.Score, error) {
	return s.store.Find(ctx, firstName, secondName)
}

// FileResult is the outcome of ProcessFile.
type FileResult struct {
	Records  int
	TopScore int
	Top      []model.Score
}

// ProcessFile reads and parses a score sheet from disk and reports its top
// scorers. Nothing is stored. A missing file fails with source.ErrSourceNotFound.
func (s *Service) ProcessFile(ctx context.Context, path string) (FileResult, error) {
	content, err := s.source.Read(ctx, path)
	if err != nil {
		return FileResult{}, err
	}
	records, err := s.Parse(ctx, content)
	if err != nil {
		return FileResult{}, err
	}
	best, top := ranking.Top(worker.ToScores(records))
	return FileResult{Records: len(records), TopScore: best, Top: top}, nil
}

// ImportFile reads a score sheet from disk and stores it synchronously.
func (s *Service) ImportFile(ctx context.Context, path string) ([]model.Score, error) {
	content, err := s.source.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Upload(ctx, content)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"dedupeUsed":  s.deduper.Size(),
		"jobs":        s.jobs.counts(),
	}
	if n, err := s.store.Count(ctx); err == nil {
		stats["totalScores"] = n
		metrics.UpdateScoresTotal(n)
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
	}
	return stats
}
