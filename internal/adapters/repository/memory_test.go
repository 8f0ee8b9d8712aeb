package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/bizlens/internal/domain/model"
)

func snapshotAt(id string, sec int64) model.ReportSnapshot {
	return model.ReportSnapshot{ID: id, Operation: model.OpAggregate, GeneratedAt: time.Unix(sec, 0)}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(3))

	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("expected count 0, got %d", n)
	}
	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no snapshots, got %d", len(got))
	}

	for i := 1; i <= 2; i++ {
		if err := store.Save(ctx, snapshotAt(fmt.Sprintf("s%d", i), int64(i))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, _ = store.Recent(ctx, 10)
	if len(got) != 2 || got[0].ID != "s2" || got[1].ID != "s1" {
		t.Errorf("expected [s2 s1], got %+v", got)
	}

	got, _ = store.Recent(ctx, 1)
	if len(got) != 1 || got[0].ID != "s2" {
		t.Errorf("expected [s2], got %+v", got)
	}
}

func TestMemoryStore_Wraparound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(3))

	for i := 1; i <= 5; i++ {
		_ = store.Save(ctx, snapshotAt(fmt.Sprintf("s%d", i), int64(i)))
	}

	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("expected count 3, got %d", n)
	}
	got, _ := store.Recent(ctx, 10)
	want := []string{"s5", "s4", "s3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d snapshots, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestMemoryStore_InvalidLimit(t *testing.T) {
	store := NewMemoryStore()
	for _, limit := range []int{0, -1} {
		if _, err := store.Recent(context.Background(), limit); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("limit %d: expected ErrInvalidLimit, got %v", limit, err)
		}
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Save(ctx, snapshotAt("s1", 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := store.Recent(ctx, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(50))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = store.Save(ctx, snapshotAt(fmt.Sprintf("s%d_%d", g, i), int64(i)))
				if _, err := store.Recent(ctx, 5); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	if n, _ := store.Count(ctx); n != 50 {
		t.Errorf("expected count 50, got %d", n)
	}
}
