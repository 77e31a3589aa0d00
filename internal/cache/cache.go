// Package cache provides the process-local TTL result cache that fronts
// the analytics aggregator. It holds no authority: on a miss the
// aggregator is always the source of truth.
package cache

import (
	"sync"
	"time"
)

// sweepThreshold is the entry count above which Set triggers an eager
// sweep of expired entries.
const sweepThreshold = 100

type entry struct {
	value      any
	insertedAt time.Time
	ttl        time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// Cache is a mutex-guarded expiring key-value map shared by all
// concurrent requests. Two racing misses for the same key may both
// write; last write wins, which is fine since cached results are pure
// functions of store state.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Get returns the cached value only while the entry is inside its TTL.
// An expired entry is evicted on read (lazy eviction; no background
// sweep runs for Get).
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set inserts or overwrites an entry. If the map holds more than
// sweepThreshold entries after insertion, all expired entries are swept
// regardless of which key was just inserted.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, insertedAt: time.Now(), ttl: ttl}

	if len(c.entries) > sweepThreshold {
		now := time.Now()
		for k, e := range c.entries {
			if e.expired(now) {
				delete(c.entries, k)
			}
		}
	}
}

// Invalidate removes every entry whose key matches the predicate and
// reports how many were removed.
func (c *Cache) Invalidate(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k := range c.entries {
		if match(k) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Clear drops every entry unconditionally.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type Stats struct {
	Size        int       `json:"size"`
	Keys        []string  `json:"keys"`
	OldestEntry time.Time `json:"oldestEntry,omitzero"`
	NewestEntry time.Time `json:"newestEntry,omitzero"`
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Size: len(c.entries), Keys: make([]string, 0, len(c.entries))}
	for k, e := range c.entries {
		s.Keys = append(s.Keys, k)
		if s.OldestEntry.IsZero() || e.insertedAt.Before(s.OldestEntry) {
			s.OldestEntry = e.insertedAt
		}
		if e.insertedAt.After(s.NewestEntry) {
			s.NewestEntry = e.insertedAt
		}
	}
	return s
}
