package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/alharis/haris/internal/haris/repos/blocklist"
)

type entry struct {
	version uint64
	matches []blocklist.Match
}

// matchCache is an LRU-backed implementation of blocklist.MatchCache.
// It tracks basic metrics: hits, misses, and evictions.
type matchCache struct {
	lru       *lru.Cache[string, entry]
	capacity  int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// disabledCache is a no-op MatchCache used when size <= 0.
type disabledCache struct{}

// New creates a MatchCache with the given capacity. If size <= 0, a
// disabled no-op cache is returned that always misses and tracks no metrics.
func New(size int) (blocklist.MatchCache, error) {
	if size <= 0 {
		return disabledCache{}, nil
	}

	c := &matchCache{capacity: size}
	// NewWithEvict also observes Purge-induced evictions.
	cache, err := lru.NewWithEvict(size, func(string, entry) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	c.lru = cache
	return c, nil
}

// Get returns the matches cached for name when they were computed against
// version. Entries from another version count as misses and are dropped.
func (c *matchCache) Get(version uint64, name string) ([]blocklist.Match, bool) {
	e, ok := c.lru.Get(name)
	if ok && e.version == version {
		c.hits.Add(1)
		return e.matches, true
	}
	if ok {
		c.lru.Remove(name)
	}
	c.misses.Add(1)
	return nil, false
}

// Put stores matches for name. A nil slice caches a negative result.
func (c *matchCache) Put(version uint64, name string, matches []blocklist.Match) {
	c.lru.Add(name, entry{version: version, matches: matches})
}

// Len returns the number of entries in the cache.
func (c *matchCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *matchCache) Purge() { c.lru.Purge() }

// Stats returns cumulative counters.
func (c *matchCache) Stats() blocklist.CacheStats {
	return blocklist.CacheStats{
		Capacity:  c.capacity,
		Size:      c.lru.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (disabledCache) Get(uint64, string) ([]blocklist.Match, bool) { return nil, false }

func (disabledCache) Put(uint64, string, []blocklist.Match) {}

func (disabledCache) Len() int { return 0 }

func (disabledCache) Purge() {}

func (disabledCache) Stats() blocklist.CacheStats { return blocklist.CacheStats{} }

var _ blocklist.MatchCache = (*matchCache)(nil)
var _ blocklist.MatchCache = disabledCache{}
