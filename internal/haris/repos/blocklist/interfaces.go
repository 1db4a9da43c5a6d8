package blocklist

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFactory builds filters sized for a dataset.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// BloomFilter is the minimal interface a snapshot needs from its prefilter.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
	// Bits and Hashes report the filter geometry.
	Bits() uint
	Hashes() uint
	// ApproxLen estimates how many distinct keys were added.
	ApproxLen() uint32
}

// MatchCache caches per-domain category matches. Entries are tagged with the
// snapshot version they were computed from; a lookup with a different
// version is a miss.
type MatchCache interface {
	Get(version uint64, name string) ([]Match, bool)
	Put(version uint64, name string, matches []Match)
	Len() int
	Purge()
	Stats() CacheStats
}

// Persister stores the last published snapshot so stale data survives a
// restart. Load returns (nil, nil) when nothing was saved yet.
type Persister interface {
	Save(s *Snapshot) error
	Load() (*Snapshot, error)
	Close() error
}
