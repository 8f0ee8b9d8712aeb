// Package queue hands report snapshots from request handlers to the audit
// workers without blocking the request.
package queue

import (
	"context"
	"sync"

	"github.com/okian/bizlens/internal/domain/model"
	"github.com/okian/bizlens/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Snapshot is the payload flowing through the queue.
type Snapshot = model.ReportSnapshot

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot. It never blocks; a full or closed queue
	// drops the snapshot and returns an error.
	Enqueue(ctx context.Context, s Snapshot) error

	// Dequeue returns a channel that receives snapshots until the queue is
	// closed or ctx is done.
	Dequeue(ctx context.Context) <-chan Snapshot

	Len(ctx context.Context) int
	Cap() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Snapshot
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Snapshot, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a snapshot to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Snapshot) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.items <- s:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueDropped()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive snapshots as they become
// available. Cancelling ctx closes the channel; a snapshot taken but not yet
// delivered goes back on the queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		for {
			var s Snapshot
			select {
			case <-ctx.Done():
				return
			case next, ok := <-q.items:
				if !ok {
					return
				}
				s = next
			}
			select {
			case out <- s:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				q.requeue(s)
				return
			}
		}
	}()
	return out
}

// requeue returns an undelivered snapshot. It is dropped once the queue is
// closed or full.
func (q *InMemoryQueue) requeue(s Snapshot) { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.closed {
		select {
		case q.items <- s:
			q.observe()
			return
		default:
		}
	}
	metrics.RecordQueueDropped()
	metrics.RecordErrorByComponent("queue", "undelivered")
}

// Len returns the current number of queued snapshots.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.observe()
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

func (q *InMemoryQueue) observe() {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Close stops accepting snapshots. Queued snapshots are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
