package storage

import (
	"github.com/maypok86/otter/v2"
	"time"
)

// Cache is a bounded in-memory cache keyed by string. Entries expire ttl
// after their last write.
type Cache[T any] struct {
	outer *otter.Cache[string, T]
}

func NewCache[T any](capacity int, ttl time.Duration) *Cache[T] {
	opts := &otter.Options[string, T]{}
	if capacity > 0 {
		opts.MaximumSize = capacity
	}
	if ttl > 0 {
		opts.ExpiryCalculator = otter.ExpiryWriting[string, T](ttl)
	}

	return &Cache[T]{outer: otter.Must(opts)}
}

func (c *Cache[T]) Set(key string, val T) {
	c.outer.Set(key, val)
}

func (c *Cache[T]) Get(key string) (T, bool) {
	return c.outer.GetIfPresent(key)
}

// Update replaces the value under key with fn(old, found).
func (c *Cache[T]) Update(key string, fn func(old T, found bool) T) T {
	old, found := c.outer.GetIfPresent(key)
	val := fn(old, found)
	c.outer.Set(key, val)
	return val
}

func (c *Cache[T]) ClearKey(key string) {
	c.outer.Invalidate(key)
}

func (c *Cache[T]) ClearAll() {
	c.outer.InvalidateAll()
}

func (c *Cache[T]) Keys() []string {
	var keys []string
	for k := range c.outer.All() {
		keys = append(keys, k)
	}
	return keys
}
