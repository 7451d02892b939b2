package server

import (
	"strings"
	"sync"
	"time"

	"github.com/mj1618/autoallow/internal/dump"
	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform"
)

// cacheKey identifies a unique dump scope.
type cacheKey struct {
	Handle model.Handle
	Depth  int
	Text   string
	Types  string
	Prune  bool
}

func keyFor(h model.Handle, opts dump.Options) cacheKey {
	return cacheKey{
		Handle: h,
		Depth:  opts.Depth,
		Text:   strings.ToLower(opts.Text),
		Types:  strings.ToLower(strings.Join(opts.Types, ",")),
		Prune:  opts.Prune,
	}
}

// cacheEntry holds a cached window dump with its timestamp.
type cacheEntry struct {
	dump      dump.WindowDump
	timestamp time.Time
}

// DumpCache provides a TTL-based cache for window dumps.
type DumpCache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewDumpCache creates a new cache. A ttl of 0 disables caching.
func NewDumpCache(ttl time.Duration) *DumpCache {
	return &DumpCache{
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Window returns a cached dump if within TTL, otherwise reads fresh.
// Failed reads are not cached.
func (c *DumpCache) Window(conn platform.Connector, w model.Window, opts dump.Options) (dump.WindowDump, error) {
	if c.ttl == 0 {
		return dump.Window(conn, w, opts)
	}

	key := keyFor(w.Handle, opts)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.timestamp) < c.ttl {
		wd := entry.dump
		c.mu.Unlock()
		wd.Title = w.Title
		return wd, nil
	}
	c.mu.Unlock()

	wd, err := dump.Window(conn, w, opts)
	if err != nil {
		return wd, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{dump: wd, timestamp: c.now()}
	c.mu.Unlock()

	return wd, nil
}

// InvalidateWindow removes all cache entries for the given window.
func (c *DumpCache) InvalidateWindow(h model.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.Handle == h {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll clears the entire cache.
func (c *DumpCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}
