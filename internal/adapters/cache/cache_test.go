package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/bizlens/internal/adapters/cache"
	"github.com/okian/bizlens/internal/domain/record"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func recs(n int) []record.Record {
	out := make([]record.Record, n)
	for i := range out {
		out[i] = record.Record{"id": record.NumberValue(float64(i))}
	}
	return out
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cache with a 10s TTL", t, func() {
		clock := &fakeClock{t: time.Unix(1000, 0)}
		c := cache.New(cache.WithTTL(10*time.Second), cache.WithMaxSize(2), cache.WithClock(clock.Now))

		Convey("When a value is stored", func() {
			c.Set(ctx, "a", recs(3))

			Convey("Then it is returned until it expires", func() {
				got, ok := c.Get(ctx, "a")
				So(ok, ShouldBeTrue)
				So(got, ShouldHaveLength, 3)

				clock.Advance(10 * time.Second)
				_, ok = c.Get(ctx, "a")
				So(ok, ShouldBeFalse)
				So(c.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the cache is full", func() {
			c.Set(ctx, "a", recs(1))
			c.Set(ctx, "b", recs(1))
			c.Set(ctx, "c", recs(1))

			Convey("Then the oldest entry is evicted", func() {
				_, ok := c.Get(ctx, "a")
				So(ok, ShouldBeFalse)
				_, ok = c.Get(ctx, "c")
				So(ok, ShouldBeTrue)
				So(c.Size(), ShouldEqual, 2)
			})
		})

		Convey("When a key is overwritten and deleted", func() {
			c.Set(ctx, "a", recs(1))
			c.Set(ctx, "a", recs(2))
			got, _ := c.Get(ctx, "a")
			So(got, ShouldHaveLength, 2)
			So(c.Size(), ShouldEqual, 1)

			c.Delete(ctx, "a")
			c.Delete(ctx, "missing")
			So(c.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a disabled cache", t, func() {
		c := cache.New(cache.WithTTL(0))
		c.Set(ctx, "a", recs(1))
		_, ok := c.Get(ctx, "a")
		So(ok, ShouldBeFalse)
	})

	Convey("Given concurrent writers", t, func() {
		c := cache.New(cache.WithMaxSize(50))
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					key := fmt.Sprintf("k-%d-%d", g, i%70)
					c.Set(ctx, key, recs(1))
					c.Get(ctx, key)
				}
			}(g)
		}
		wg.Wait()
		So(c.Size(), ShouldBeLessThanOrEqualTo, 50)
	})

	Convey("Key separates tokens", t, func() {
		So(cache.Key("/api/entites", "Bearer a"), ShouldNotEqual, cache.Key("/api/entites", "Bearer b"))
		So(cache.Key("/api/entites", "Bearer a"), ShouldEqual, cache.Key("/api/entites", "Bearer a"))
	})
}
