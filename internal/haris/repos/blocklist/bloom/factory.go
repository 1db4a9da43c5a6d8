package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/alharis/haris/internal/haris/repos/blocklist"
)

// factory implements blocklist.BloomFactory on top of a sizer.
type factory struct {
	sizer blocklist.BloomSizer
}

// NewFactory returns a BloomFactory that sizes filters from capacity and FP rate.
func NewFactory() blocklist.BloomFactory { return factory{sizer: NewSizer()} }

// New constructs a filter sized for capacity entries at the target
// false-positive rate.
func (f factory) New(capacity uint64, fpRate float64) blocklist.BloomFilter {
	m, k := f.sizer.Size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}
