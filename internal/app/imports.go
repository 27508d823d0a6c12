package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scores/internal/adapters/mq/queue"
	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/pkg/logger"
	"github.com/okian/scores/pkg/metrics"
)

// JobStatus is the observable state of an import job.
type JobStatus struct {
	ID        string
	Source    string
	Checksum  string
	Status    model.ImportStatus
	Imported  int
	Err       string
	Submitted time.Time
	Updated   time.Time
}

// Checksum returns the hex sha256 of content, the import dedupe key.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Submit queues content for asynchronous import. Content identical to an
// earlier accepted submission is not queued again: the earlier job is
// returned with duplicate set.
func (s *Service) Submit(ctx context.Context, sourceName, content string) (JobStatus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return JobStatus{}, false, ErrNotStarted
	}

	job := model.ImportJob{
		ID:          uuid.NewString(),
		Source:      sourceName,
		Content:     content,
		Checksum:    Checksum(content),
		SubmittedAt: time.Now().UTC(),
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	if owner, seen := s.deduper.SeenAndRecord(ctx, job.Checksum, job.ID); seen {
		if st, ok := s.jobs.get(owner); ok {
			metrics.RecordImportDuplicate()
			s.logger.Debug(ctx, "duplicate import", logger.String("job_id", owner))
			return st, true, nil
		}
		// The owner is unknown to the registry; accept the content again.
		s.deduper.Unrecord(ctx, job.Checksum)
		s.deduper.SeenAndRecord(ctx, job.Checksum, job.ID)
	}

	st := s.jobs.add(job)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.jobs.remove(job.ID)
		s.deduper.Unrecord(ctx, job.Checksum)
		if errors.Is(err, queue.ErrFull) {
			return JobStatus{}, false, ErrBackpressure
		}
		return JobStatus{}, false, err
	}

	s.logger.Info(ctx, "import queued",
		logger.String("job_id", job.ID),
		logger.String("source", sourceName),
		logger.Int("bytes", len(content)))
	return st, false, nil
}

// Job returns the status of an import job.
func (s *Service) Job(_ context.Context, id string) (JobStatus, error) {
	st, ok := s.jobs.get(id)
	if !ok {
		return JobStatus{}, ErrJobNotFound
	}
	return st, nil
}

// jobRegistry tracks import jobs and receives worker reports.
type jobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*JobStatus
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]*JobStatus)}
}

func (r *jobRegistry) add(job model.ImportJob) JobStatus { //nolint:gocritic // hugeParam: copied into the registry
	st := &JobStatus{
		ID:        job.ID,
		Source:    job.Source,
		Checksum:  job.Checksum,
		Status:    model.ImportQueued,
		Submitted: job.SubmittedAt,
		Updated:   job.SubmittedAt,
	}
	r.mu.Lock()
	r.jobs[job.ID] = st
	r.mu.Unlock()
	return *st
}

func (r *jobRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()
}

func (r *jobRegistry) get(id string) (JobStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.jobs[id]
	if !ok {
		return JobStatus{}, false
	}
	return *st, true
}

func (r *jobRegistry) counts() map[model.ImportStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[model.ImportStatus]int{}
	for _, st := range r.jobs {
		out[st.Status]++
	}
	return out
}

// Started implements worker.Reporter.
func (r *jobRegistry) Started(_ context.Context, jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.jobs[jobID]; ok {
		st.Status = model.ImportRunning
		st.Updated = time.Now().UTC()
	}
}

// Finished implements worker.Reporter.
func (r *jobRegistry) Finished(_ context.Context, jobID string, imported int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[jobID]
	if !ok {
		return
	}
	st.Imported = imported
	st.Updated = time.Now().UTC()
	if err != nil {
		st.Status = model.ImportFailed
		st.Err = err.Error()
	} else {
		st.Status = model.ImportDone
	}
	metrics.RecordImport(string(st.Status))
}
