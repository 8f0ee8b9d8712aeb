package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/bizlens/internal/adapters/mq/queue"
	worker "github.com/okian/bizlens/internal/adapters/mq/worker"
	model "github.com/okian/bizlens/internal/domain/model"
	logging "github.com/okian/bizlens/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch   chan queue.Snapshot
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan queue.Snapshot, 200)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Snapshot {
	return mq.ch
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.ch) })
	return nil
}

func (mq *mockQueue) add(s queue.Snapshot) { //nolint:gocritic // hugeParam
	mq.ch <- s
}

type mockSaver struct {
	mu     sync.Mutex
	saved  map[string]queue.Snapshot
	errors map[string]error
	delay  time.Duration
}

func newMockSaver() *mockSaver {
	return &mockSaver{
		saved:  make(map[string]queue.Snapshot),
		errors: make(map[string]error),
	}
}

func (ms *mockSaver) Save(ctx context.Context, s queue.Snapshot) error { //nolint:gocritic // hugeParam
	if ms.delay > 0 {
		time.Sleep(ms.delay)
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err, ok := ms.errors[s.ID]; ok {
		return err
	}
	ms.saved[s.ID] = s
	return nil
}

func (ms *mockSaver) setError(id string, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.errors[id] = err
}

func (ms *mockSaver) has(id string) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	_, ok := ms.saved[id]
	return ok
}

func (ms *mockSaver) count() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.saved)
}

func snapshot(id string) queue.Snapshot {
	return queue.Snapshot{ID: id, Operation: model.OpScorecard, GeneratedAt: time.Now()}
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		saver := newMockSaver()
		w := worker.NewInMemoryWorker(q, saver, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go w.Run(ctx)

		convey.Convey("When a snapshot arrives", func() {
			q.add(snapshot("s-1"))

			convey.Convey("Then it is saved", func() {
				convey.So(eventually(func() bool { return saver.has("s-1") }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When saving fails", func() {
			saver.setError("s-2", errors.New("db down"))
			q.add(snapshot("s-2"))
			q.add(snapshot("s-3"))

			convey.Convey("Then the worker keeps going", func() {
				convey.So(eventually(func() bool { return saver.has("s-3") }), convey.ShouldBeTrue)
				convey.So(saver.has("s-2"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})

		convey.Convey("When the queue closes", func() {
			_ = q.Close()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		saver := newMockSaver()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, saver)
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("When many snapshots are queued concurrently", func() {
			pool := worker.NewPool(4, q, saver)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			var wg sync.WaitGroup
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for j := 0; j < 20; j++ {
						q.add(snapshot(fmt.Sprintf("s-%d-%d", p, j)))
					}
				}(i)
			}
			wg.Wait()

			convey.Convey("Then Shutdown drains them all", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer shutdownCancel()

				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(saver.count(), convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When draining outlasts the deadline", func() {
			saver.delay = 50 * time.Millisecond
			pool := worker.NewPool(1, q, saver)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			for i := 0; i < 20; i++ {
				q.add(snapshot(fmt.Sprintf("slow-%d", i)))
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer shutdownCancel()

			convey.So(pool.Shutdown(shutdownCtx), convey.ShouldNotBeNil)
			convey.So(saver.count(), convey.ShouldBeLessThan, 20)
		})

		convey.Convey("When stopped", func() {
			pool := worker.NewPool(2, q, saver)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)
			pool.Stop()
			pool.Stop()

			convey.So(pool.Size(), convey.ShouldEqual, 2)
		})

		convey.Convey("When stopped while its workers wait on a real queue", func() {
			mem := queue.NewInMemoryQueue(queue.WithCapacity(4))
			pool := worker.NewPool(2, mem, saver)
			pool.Start(context.WithoutCancel(context.Background()))
			pool.Stop()
			time.Sleep(20 * time.Millisecond)

			convey.Convey("Then no reader is left behind to take new snapshots", func() {
				convey.So(mem.Enqueue(context.Background(), snapshot("late")), convey.ShouldBeNil)
				time.Sleep(50 * time.Millisecond)
				convey.So(mem.Len(context.Background()), convey.ShouldEqual, 1)
				convey.So(saver.has("late"), convey.ShouldBeFalse)
			})
		})
	})
}
