// Package cache keeps validated GET responses so a client can revalidate them
// with conditional requests instead of fetching them again.
package cache

import (
	"sync"
	"time"

	"http-engine/application/http"

	"github.com/benbjohnson/clock"
)

const DefaultTTL = 5 * time.Minute

// Entry is a stored response with the validators it was served with.
type Entry struct {
	Path     string
	Response *http.Response

	// LastModified and ETag are raw header values. Empty means absent.
	LastModified string
	ETag         string

	StoredAt time.Time
}

func (e *Entry) clone() *Entry {
	c := *e
	c.Response = e.Response.Clone()
	return &c
}

// ResponseCache maps request targets to entries.
// It is safe for concurrent use.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]*Entry

	ttl   time.Duration
	clock clock.Clock
}

// New creates a cache. A non-positive ttl means [DefaultTTL].
func New(ttl time.Duration, clk clock.Clock) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.New()
	}

	return &ResponseCache{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		clock:   clk,
	}
}

func (c *ResponseCache) TTL() time.Duration { return c.ttl }

// Get returns a copy of the entry for path if it is still fresh.
// Stale entries are removed.
func (c *ResponseCache) Get(path string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok {
		cacheMisses.Inc()
		return nil, false
	}

	if !c.fresh(e) {
		delete(c.entries, path)
		cacheEvictions.Inc()
		cacheMisses.Inc()
		return nil, false
	}

	cacheHits.Inc()
	return e.clone(), true
}

// Put stores a copy of resp for path, replacing any previous entry.
func (c *ResponseCache) Put(path string, resp *http.Response, lastModified, etag string) {
	e := &Entry{
		Path:         path,
		Response:     resp.Clone(),
		LastModified: lastModified,
		ETag:         etag,
		StoredAt:     c.clock.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = e
	cacheStores.Inc()
}

// Touch renews the entry for path after a successful revalidation.
// It reports false when there is no entry.
func (c *ResponseCache) Touch(path string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok {
		return nil, false
	}

	e.StoredAt = c.clock.Now()
	cacheRevalidations.Inc()

	return e.clone(), true
}

func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
}

func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *ResponseCache) fresh(e *Entry) bool {
	return c.clock.Since(e.StoredAt) < c.ttl
}
