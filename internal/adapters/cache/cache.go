// Package cache holds upstream record lists for a short time.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bizlens/internal/domain/record"
)

// Cache stores record lists by key.
type Cache interface {
	// Get returns the entry for key if it exists and has not expired.
	Get(ctx context.Context, key string) ([]record.Record, bool)
	// Set stores value under key, evicting the oldest entry when full.
	Set(ctx context.Context, key string, value []record.Record)
	Delete(ctx context.Context, key string)
	Size() int64
}

// Key derives a cache key from an upstream path and the caller's token, so
// that one caller never reads another caller's cached list.
func Key(path, token string) string {
	sum := sha256.Sum256([]byte(token))
	return path + "#" + hex.EncodeToString(sum[:8])
}

// node is an entry of the insertion-ordered list, oldest at head.
type node struct {
	key     string
	value   []record.Record
	expires time.Time
	prev    *node
	next    *node
}

func (n *node) reset() {
	*n = node{}
}

// ttlCache evicts expired entries lazily and the oldest entry when full.
type ttlCache struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node
	tail     *node
	maxSize  int
	ttl      time.Duration
	now      func() time.Time
	size     atomic.Int64
	nodePool sync.Pool
}

// New creates a cache. With a non-positive TTL it stores nothing.
func New(opts ...Option) Cache {
	c := &ttlCache{
		maxSize: 256,
		ttl:     30 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[string]*node)
	c.nodePool = sync.Pool{New: func() interface{} { return &node{} }}
	return c
}

func (c *ttlCache) Get(_ context.Context, key string) ([]record.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(n.expires) {
		c.remove(n)
		return nil, false
	}
	return n.value, true
}

func (c *ttlCache) Set(_ context.Context, key string, value []record.Record) {
	if c.ttl <= 0 || c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.remove(old)
	}
	for len(c.entries) >= c.maxSize && c.head != nil {
		c.remove(c.head)
	}

	n := c.nodePool.Get().(*node)
	n.key = key
	n.value = value
	n.expires = c.now().Add(c.ttl)
	n.prev = c.tail
	if c.tail != nil {
		c.tail.next = n
	} else {
		c.head = n
	}
	c.tail = n
	c.entries[key] = n
	c.size.Add(1)
}

func (c *ttlCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.entries[key]; ok {
		c.remove(n)
	}
}

func (c *ttlCache) Size() int64 {
	return c.size.Load()
}

// remove unlinks n. Caller holds mu.
func (c *ttlCache) remove(n *node) {
	delete(c.entries, n.key)
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.reset()
	c.nodePool.Put(n)
	c.size.Add(-1)
}
