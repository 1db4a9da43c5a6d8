package blocklist

import (
	"sync"
)

// --- fakes ---

type cacheKey struct {
	version uint64
	name    string
}

type fakeCache struct {
	mu         sync.Mutex
	m          map[cacheKey][]Match
	getCalls   int
	putCalls   int
	purgeCalls int
}

func newFakeCache() *fakeCache { return &fakeCache{m: make(map[cacheKey][]Match)} }

func (c *fakeCache) Get(version uint64, name string) ([]Match, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	v, ok := c.m[cacheKey{version, name}]
	return v, ok
}

func (c *fakeCache) Put(version uint64, name string, m []Match) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putCalls++
	c.m[cacheKey{version, name}] = m
}

func (c *fakeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *fakeCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeCalls++
	c.m = make(map[cacheKey][]Match)
}

func (c *fakeCache) Stats() CacheStats { return CacheStats{Size: c.Len()} }

// exactBloom is a Bloom stand-in without false positives that records probes.
type exactBloom struct {
	mu     sync.Mutex
	keys   map[string]struct{}
	probes int
}

func (b *exactBloom) Add(key []byte) {
	b.mu.Lock()
	b.keys[string(key)] = struct{}{}
	b.mu.Unlock()
}

func (b *exactBloom) MightContain(key []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probes++
	_, ok := b.keys[string(key)]
	return ok
}

func (b *exactBloom) Bits() uint   { return 64 }
func (b *exactBloom) Hashes() uint { return 1 }
func (b *exactBloom) ApproxLen() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint32(len(b.keys))
}

type fakeFactory struct {
	last     *exactBloom
	capacity uint64
}

func (f *fakeFactory) New(capacity uint64, _ float64) BloomFilter {
	f.capacity = capacity
	f.last = &exactBloom{keys: make(map[string]struct{})}
	return f.last
}
