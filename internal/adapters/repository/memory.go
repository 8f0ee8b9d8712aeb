package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/bizlens/internal/domain/model"
	"github.com/okian/bizlens/pkg/metrics"
)

const defaultMemoryCapacity = 1000

// MemoryStore keeps the most recent snapshots in a ring buffer.
type MemoryStore struct {
	mu       sync.RWMutex
	ring     []model.ReportSnapshot
	next     int
	size     int
	capacity int
	closed   bool
}

// NewMemoryStore creates an empty ring-buffer store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{capacity: defaultMemoryCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.ring = make([]model.ReportSnapshot, s.capacity)
	metrics.UpdateRepositoryRecordsTotal(0)
	return s
}

// Save appends s, overwriting the oldest snapshot when full.
func (s *MemoryStore) Save(_ context.Context, snap model.ReportSnapshot) error { //nolint:gocritic // hugeParam
	start := time.Now()
	defer func() {
		metrics.RecordRepositorySaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.ring[s.next] = snap
	s.next = (s.next + 1) % s.capacity
	if s.size < s.capacity {
		s.size++
	}
	metrics.UpdateRepositoryRecordsTotal(s.size)
	return nil
}

// Recent returns up to limit snapshots, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]model.ReportSnapshot, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	n := min(limit, s.size)
	out := make([]model.ReportSnapshot, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + s.capacity) % s.capacity
		out = append(out, s.ring[idx])
	}
	return out, nil
}

// Count returns the number of retained snapshots.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size, nil
}

// Close makes further calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
