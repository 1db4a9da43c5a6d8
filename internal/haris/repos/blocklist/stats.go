package blocklist

// CacheStats reports lightweight cache metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type CacheStats struct {
	Capacity  int    // configured capacity (0 for disabled cache)
	Size      int    // current number of entries
	Hits      uint64 // total cache hits since construction
	Misses    uint64 // total cache misses since construction
	Evictions uint64 // total evictions since construction
}

// PrefilterStats describes the Bloom filter of the active snapshot. All
// fields are zero when the snapshot has no prefilter.
type PrefilterStats struct {
	Bits      uint
	Hashes    uint
	ApproxLen uint32 // estimated distinct domains across categories
}

// StoreStats describes the active snapshot and the match cache.
type StoreStats struct {
	Version     uint64 // active snapshot version (0 before the first publish)
	UpdatedUnix int64  // snapshot creation time, seconds since epoch
	Categories  int    // categories in the snapshot
	Domains     int    // domains across all categories, counted per category
	Prefilter   PrefilterStats
	Cache       CacheStats
}
