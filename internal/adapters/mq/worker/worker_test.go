package worker_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smartystreets/goconvey/convey"

	"github.com/grafixr/site/internal/adapters/mq/queue"
	"github.com/grafixr/site/internal/adapters/mq/worker"
	logging "github.com/grafixr/site/pkg/logger"
)

// Mock implementations for testing.
type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(_ context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockRefs struct {
	mu     sync.Mutex
	inUse  map[string]bool
	errFor map[string]error
}

func (m *mockRefs) FileInUse(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errFor[key]; err != nil {
		return false, err
	}
	return m.inUse[key], nil
}

type mockDeleter struct {
	mu        sync.Mutex
	deleted   []string
	failures  map[string]int // remaining failures per key
	callCount map[string]int
}

func newMockDeleter() *mockDeleter {
	return &mockDeleter{failures: map[string]int{}, callCount: map[string]int{}}
}

func (m *mockDeleter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount[key]++
	if m.failures[key] > 0 {
		m.failures[key]--
		return errors.New("disk busy")
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockDeleter) calls(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount[key]
}

func initLogger() {
	_ = logging.Init(logging.WithOutput(io.Discard))
}

func TestCleaner(t *testing.T) {
	convey.Convey("Given a cleaner over mock refs and storage", t, func() {
		initLogger()
		ctx := context.Background()
		refs := &mockRefs{inUse: map[string]bool{"uploads/shared.png": true}, errFor: map[string]error{}}
		del := newMockDeleter()
		clock := clockwork.NewFakeClock()
		cleaner := worker.NewCleaner(refs, del, worker.WithClock(clock), worker.WithAttempts(3), worker.WithBackoff(time.Second))

		convey.Convey("When cleaning referenced and unreferenced keys", func() {
			rep := cleaner.Clean(ctx, queue.Job{ID: "j1", Keys: []string{"uploads/shared.png", "uploads/own.png"}})

			convey.Convey("Then only the unreferenced key is deleted", func() {
				convey.So(rep.Deleted, convey.ShouldResemble, []string{"uploads/own.png"})
				convey.So(rep.Retained, convey.ShouldResemble, []string{"uploads/shared.png"})
				convey.So(rep.Failed, convey.ShouldBeEmpty)
				convey.So(del.calls("uploads/shared.png"), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a delete fails once", func() {
			del.failures["uploads/flaky.png"] = 1
			done := make(chan worker.Report, 1)
			go func() { done <- cleaner.Clean(ctx, queue.Job{ID: "j2", Keys: []string{"uploads/flaky.png"}}) }()

			// The retry waits one backoff step on the clock.
			convey.So(clock.BlockUntilContext(ctx, 1), convey.ShouldBeNil)
			clock.Advance(time.Second)

			convey.Convey("Then it is retried and succeeds", func() {
				rep := <-done
				convey.So(rep.Deleted, convey.ShouldResemble, []string{"uploads/flaky.png"})
				convey.So(del.calls("uploads/flaky.png"), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When every attempt fails", func() {
			refs.errFor["uploads/broken.png"] = errors.New("db down")
			fast := worker.NewCleaner(refs, del, worker.WithAttempts(2), worker.WithBackoff(time.Millisecond))
			rep := fast.Clean(ctx, queue.Job{ID: "j3", Keys: []string{"uploads/broken.png"}})

			convey.Convey("Then the key is reported as failed and never deleted", func() {
				convey.So(rep.Failed, convey.ShouldResemble, []string{"uploads/broken.png"})
				convey.So(del.calls("uploads/broken.png"), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the context is cancelled during backoff", func() {
			del.failures["uploads/stuck.png"] = 5
			cctx, cancel := context.WithCancel(ctx)
			done := make(chan worker.Report, 1)
			go func() { done <- cleaner.Clean(cctx, queue.Job{ID: "j4", Keys: []string{"uploads/stuck.png"}}) }()

			convey.So(clock.BlockUntilContext(ctx, 1), convey.ShouldBeNil)
			cancel()

			convey.Convey("Then the cleaner gives up without waiting", func() {
				rep := <-done
				convey.So(rep.Failed, convey.ShouldResemble, []string{"uploads/stuck.png"})
				convey.So(del.calls("uploads/stuck.png"), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool on a mock queue", t, func() {
		initLogger()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mq := newMockQueue()
		refs := &mockRefs{inUse: map[string]bool{}, errFor: map[string]error{}}
		del := newMockDeleter()
		cleaner := worker.NewCleaner(refs, del)

		var mu sync.Mutex
		var reports []worker.Report
		pool := worker.NewPool(3, mq, cleaner, worker.WithJobDone(func(_ queue.Job, r worker.Report) {
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
		}))
		convey.So(pool.Size(), convey.ShouldEqual, 3)
		pool.Start(ctx)

		convey.Convey("When jobs are queued and the pool shuts down", func() {
			mq.jobs <- queue.Job{ID: "a", Keys: []string{"uploads/a.png"}}
			mq.jobs <- queue.Job{ID: "b", Keys: []string{"uploads/b.png", "uploads/c.png"}}

			err := pool.Shutdown(context.Background())

			convey.Convey("Then queued jobs are drained before the workers exit", func() {
				convey.So(err, convey.ShouldBeNil)
				mu.Lock()
				defer mu.Unlock()
				convey.So(reports, convey.ShouldHaveLength, 2)
				convey.So(del.deleted, convey.ShouldHaveLength, 3)
			})
		})
	})

	convey.Convey("Given a pool created with a non-positive size", t, func() {
		initLogger()
		pool := worker.NewPool(0, newMockQueue(), worker.NewCleaner(&mockRefs{}, newMockDeleter()))

		convey.Convey("Then it falls back to the default size", func() {
			convey.So(pool.Size(), convey.ShouldEqual, 2)
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		initLogger()
		mq := newMockQueue()
		w := worker.NewInMemoryWorker(mq, worker.NewCleaner(&mockRefs{}, newMockDeleter()), worker.WithName("solo"))
		go w.Run(context.Background())

		convey.Convey("When shutting it down twice", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			convey.Convey("Then both calls return without error", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}
