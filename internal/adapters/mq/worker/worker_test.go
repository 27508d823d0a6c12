package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/scores/internal/adapters/mq/queue"
	worker "github.com/okian/scores/internal/adapters/mq/worker"
	"github.com/okian/scores/internal/domain/csvparse"
	model "github.com/okian/scores/internal/domain/model"
	logging "github.com/okian/scores/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const sheet = "First Name,Second Name,Score\nDee,Moore,56\nSipho,Lolo,85\n"

type mockQueue struct {
	jobs chan queue.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	close(mq.jobs)
	return nil
}

type mockAdder struct {
	mu     sync.Mutex
	scores []model.Score
	err    error
}

func (m *mockAdder) Add(ctx context.Context, scores []model.Score) ([]model.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := range scores {
		scores[i].ID = fmt.Sprintf("id-%d", len(m.scores)+i)
	}
	m.scores = append(m.scores, scores...)
	return scores, nil
}

func (m *mockAdder) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockAdder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scores)
}

type outcome struct {
	imported int
	err      error
}

type mockReporter struct {
	mu       sync.Mutex
	started  []string
	finished map[string]outcome
	done     chan string
}

func newMockReporter() *mockReporter {
	return &mockReporter{finished: map[string]outcome{}, done: make(chan string, 100)}
}

func (r *mockReporter) Started(ctx context.Context, jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, jobID)
}

func (r *mockReporter) Finished(ctx context.Context, jobID string, imported int, err error) {
	r.mu.Lock()
	r.finished[jobID] = outcome{imported: imported, err: err}
	r.mu.Unlock()
	r.done <- jobID
}

func (r *mockReporter) outcome(jobID string) outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished[jobID]
}

func (r *mockReporter) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for job %d of %d", i+1, n)
		}
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker with a real parser", t, func() {
		_ = logging.Init(logging.WithWriter(io.Discard))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := newMockQueue()
		adder := &mockAdder{}
		rep := newMockReporter()
		w := worker.NewInMemoryWorker(q, csvparse.New(), adder, rep, worker.WithName("test-worker"))
		go w.Run(ctx)

		convey.Convey("When a valid sheet is queued", func() {
			q.jobs <- queue.Job{ID: "job-1", Content: sheet}
			rep.wait(t, 1)

			convey.Convey("Then every row is stored and reported", func() {
				convey.So(adder.count(), convey.ShouldEqual, 2)
				out := rep.outcome("job-1")
				convey.So(out.err, convey.ShouldBeNil)
				convey.So(out.imported, convey.ShouldEqual, 2)
				convey.So(rep.started, convey.ShouldContain, "job-1")
			})
		})

		convey.Convey("When an invalid sheet is queued", func() {
			q.jobs <- queue.Job{ID: "job-bad", Content: sheet + "Ann,Lee,101\n"}
			rep.wait(t, 1)

			convey.Convey("Then nothing is stored and the parse error is reported", func() {
				convey.So(adder.count(), convey.ShouldEqual, 0)
				out := rep.outcome("job-bad")
				convey.So(errors.Is(out.err, csvparse.ErrScoreOutOfRange), convey.ShouldBeTrue)
				convey.So(out.imported, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the store fails", func() {
			adder.fail(errors.New("disk full"))
			q.jobs <- queue.Job{ID: "job-store", Content: sheet}
			rep.wait(t, 1)

			convey.Convey("Then the store error is reported", func() {
				out := rep.outcome("job-store")
				convey.So(out.err, convey.ShouldNotBeNil)
				convey.So(out.err.Error(), convey.ShouldContainSubstring, "disk full")
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops cleanly and a second shutdown is safe", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		_ = logging.Init(logging.WithWriter(io.Discard))
		ctx := context.Background()

		q := queue.NewInMemoryQueue(queue.WithCapacity(20))
		adder := &mockAdder{}
		rep := newMockReporter()
		pool := worker.NewPool(3, q, csvparse.New(), adder, rep)
		pool.Start(ctx)

		convey.Convey("When jobs are queued and the pool shuts down", func() {
			for i := 0; i < 10; i++ {
				convey.So(q.Enqueue(ctx, queue.Job{ID: fmt.Sprintf("job-%d", i), Content: sheet}), convey.ShouldBeNil)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then every queued job is drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(adder.count(), convey.ShouldEqual, 20)
				convey.So(len(rep.done), convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When the pool is stopped", func() {
			pool.Stop(ctx)

			convey.Convey("Then a later shutdown still returns", func() {
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestToScores(t *testing.T) {
	convey.Convey("Given parsed records", t, func() {
		records := []csvparse.Record{{FirstName: "A", SecondName: "B", Score: 7, Line: 2}}

		convey.Convey("Then they convert to unsaved scores", func() {
			convey.So(worker.ToScores(records), convey.ShouldResemble, []model.Score{{FirstName: "A", SecondName: "B", Value: 7}})
		})
	})
}
