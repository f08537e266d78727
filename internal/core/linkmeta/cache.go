package linkmeta

import (
	"sync"
	"time"
)

// Cache is the runtime-only metadata store: one entry per normalized URL,
// replaced wholesale on every write, lazily expired on lookup. It is never
// persisted; persisted item metadata is the owning item's concern.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Metadata
	ttl     time.Duration
}

// NewCache creates a cache whose entries are considered fresh for ttl
// after their FetchedAt.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*Metadata),
		ttl:     ttl,
	}
}

// Get returns the entry for url, or nil if absent or expired. Expired
// entries are evicted on the way out. Loading placeholders are returned
// as-is so observers can render a pending state.
func (c *Cache) Get(url string) *Metadata {
	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	if !entry.Loading && time.Since(entry.FetchedAt) > c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a fresh entry may have landed.
		if current, ok := c.entries[url]; ok && current == entry {
			delete(c.entries, url)
		}
		c.mu.Unlock()
		return nil
	}

	return entry
}

// Put stores an entry for url, replacing any previous one. Entries are
// immutable once stored; callers must not modify them afterwards.
func (c *Cache) Put(url string, m *Metadata) {
	c.mu.Lock()
	c.entries[url] = m
	c.mu.Unlock()
}

// Invalidate removes the entry for url, if any. Used on forced refresh,
// URL change and item deletion.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	delete(c.entries, url)
	c.mu.Unlock()
}

// Purge drops every entry. Called on sign-out teardown.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]*Metadata)
	c.mu.Unlock()
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
