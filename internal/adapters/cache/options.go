package cache

import "time"

// Option applies a configuration option to the cache.
type Option func(*ttlCache)

// WithMaxSize bounds the number of entries. Zero or negative disables caching.
func WithMaxSize(maxSize int) Option {
	return func(c *ttlCache) {
		c.maxSize = maxSize
	}
}

// WithTTL sets how long an entry stays valid. Zero or negative disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(c *ttlCache) {
		c.ttl = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *ttlCache) {
		if now != nil {
			c.now = now
		}
	}
}
