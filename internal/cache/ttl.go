// Package cache provides the in-process TTL caches that sit between the
// file storage service and the backing object store.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// TTLCache is a concurrency-safe map with per-instance TTL. Expired entries
// are dropped lazily when a Get finds them and reclaimed in bulk by a
// periodic sweeper.
type TTLCache[T any] struct {
	mu    sync.RWMutex
	name  string
	ttl   time.Duration
	sweep time.Duration
	items map[string]entry[T]

	metrics *Metrics

	// Statistics
	hits      int64
	misses    int64
	evictions int64
}

// New creates a TTL cache. metrics may be nil.
func New[T any](name string, ttl, sweep time.Duration, metrics *Metrics) *TTLCache[T] {
	return &TTLCache[T]{
		name:    name,
		ttl:     ttl,
		sweep:   sweep,
		items:   make(map[string]entry[T]),
		metrics: metrics,
	}
}

// Key builds the canonical cache key for an object.
func Key(bucket, object string) string {
	return bucket + ":" + object
}

// Get returns the cached value for key. An entry past its TTL is removed
// and reported as a miss, never returned.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if ok && time.Now().Before(e.expiresAt) {
		c.recordHit()
		return e.value, true
	}

	if ok {
		// Lazy expiry. Re-check under the write lock: a concurrent Set
		// may have refreshed the entry since the read.
		c.mu.Lock()
		if cur, still := c.items[key]; still && !time.Now().Before(cur.expiresAt) {
			delete(c.items, key)
			c.evictions++
			if c.metrics != nil {
				c.metrics.evictions.WithLabelValues(c.name).Inc()
				c.metrics.entries.WithLabelValues(c.name).Set(float64(len(c.items)))
			}
		}
		c.mu.Unlock()
	}

	c.recordMiss()
	var zero T
	return zero, false
}

// Set stores value under key with the cache's TTL. An existing entry is
// replaced outright.
func (c *TTLCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{value: value, expiresAt: time.Now().Add(c.ttl)}
	if c.metrics != nil {
		c.metrics.entries.WithLabelValues(c.name).Set(float64(len(c.items)))
	}
}

// Delete removes key. Deleting an absent key is a no-op.
func (c *TTLCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	if c.metrics != nil {
		c.metrics.entries.WithLabelValues(c.name).Set(float64(len(c.items)))
	}
}

// Len returns the number of entries, expired ones included until swept.
func (c *TTLCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// StartSweeper launches the periodic sweep goroutine. It stops when ctx is
// cancelled.
func (c *TTLCache[T]) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.sweep)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.removeExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *TTLCache[T]) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, key)
			c.evictions++
			if c.metrics != nil {
				c.metrics.evictions.WithLabelValues(c.name).Inc()
			}
		}
	}
	if c.metrics != nil {
		c.metrics.entries.WithLabelValues(c.name).Set(float64(len(c.items)))
	}
}

func (c *TTLCache[T]) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.hits.WithLabelValues(c.name).Inc()
	}
}

func (c *TTLCache[T]) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.misses.WithLabelValues(c.name).Inc()
	}
}

// Stats holds cache statistics.
type Stats struct {
	Name      string
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate calculates the cache hit rate.
func (s *Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns current cache statistics.
func (c *TTLCache[T]) Stats() *Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Stats{
		Name:      c.name,
		Items:     len(c.items),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
