// Package cache provides a TTL-bounded in-memory content store keyed by URL.
package cache

import (
	"sync"
	"time"

	"fastwebsearch/internal/search"
)

type entry struct {
	content  string
	storedAt time.Time
}

// Cache maps URLs to fetched content for a bounded time-to-live.
// Expiry is lazy: expired entries are treated as absent on read and
// overwritten on the next Set. There is no background sweep.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	clock   search.Clock
}

// New creates a Cache. A zero TTL disables caching (every Get misses).
func New(ttl time.Duration, clock search.Clock) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the cached content for url if it was stored less than
// the TTL ago.
func (c *Cache) Get(url string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.clock.Now().Sub(e.storedAt) >= c.ttl {
		return "", false
	}
	return e.content, true
}

// Set stores content for url, stamped with the current time.
func (c *Cache) Set(url, content string) {
	c.mu.Lock()
	c.entries[url] = entry{content: content, storedAt: c.clock.Now()}
	c.mu.Unlock()
}

// Invalidate removes the entry for url if present.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	delete(c.entries, url)
	c.mu.Unlock()
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
