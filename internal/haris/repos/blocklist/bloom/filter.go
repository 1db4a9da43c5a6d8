package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/alharis/haris/internal/haris/repos/blocklist"
)

// filter is the prefilter of one snapshot: every domain of every category is
// added while the snapshot is assembled, after which the filter is only
// read by concurrent matches.
type filter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) {
	f.mu.Lock()
	f.bf.Add(key)
	f.mu.Unlock()
}

func (f *filter) MightContain(key []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.Test(key)
}

func (f *filter) Bits() uint   { return f.bf.Cap() }
func (f *filter) Hashes() uint { return f.bf.K() }

func (f *filter) ApproxLen() uint32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.ApproximatedSize()
}

var _ blocklist.BloomFilter = (*filter)(nil)
