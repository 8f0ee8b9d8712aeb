// Package worker persists report snapshots off the request path.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bizlens/internal/adapters/mq/queue"
	"github.com/okian/bizlens/pkg/logger"
	"github.com/okian/bizlens/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	saveTimeout             = 5 * time.Second
)

// Snapshot is what workers read off the queue.
type Snapshot = queue.Snapshot

// Saver stores a snapshot.
type Saver interface {
	Save(ctx context.Context, s Snapshot) error
}

// Queue defines how workers receive snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Snapshot
}

// Worker persists snapshots until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	saver Saver
	name  string

	active *atomic.Int64

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, saver Saver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		saver:    saver,
		name:     "worker",
		active:   &atomic.Int64{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// releases the dequeue goroutine once this loop returns
	dctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := w.queue.Dequeue(dctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-ch:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error saving snapshot", logger.Error(err))
			}
		}
	}
}

func (w *InMemoryWorker) signal() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signal()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, s Snapshot) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	start := time.Now()
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	// the request that produced s is gone; do not inherit its cancellation
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := w.saver.Save(saveCtx, s); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "save_error")
		metrics.RecordErrorByType("save_error", "low")
		return fmt.Errorf("save snapshot %s: %w", s.ID, err)
	}
	w.logger.Debug(ctx, "snapshot saved",
		logger.String("id", s.ID),
		logger.String("operation", string(s.Operation)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, saver Saver) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	active := &atomic.Int64{}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, saver,
			WithName("worker-"+strconv.Itoa(i)),
			withActiveCounter(active),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals every worker and waits briefly for each. Queued snapshots
// are abandoned.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.signal()
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when ctx expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
		if timedOut {
			break
		}
	}
	if timedOut {
		p.Stop()
		return fmt.Errorf("pool shutdown: %w", ctx.Err())
	}
	return nil
}
