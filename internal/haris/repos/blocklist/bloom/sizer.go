package bloom

import (
	"math"

	"github.com/alharis/haris/internal/haris/repos/blocklist"
)

// DefaultFPRate is used when a caller passes a rate outside (0, 1).
const DefaultFPRate = 0.01

// sizer picks the geometry of a snapshot prefilter from the number of domains
// across all categories and the configured false-positive rate:
//
//	m = - (n * ln p) / (ln 2)^2
//	k = (m / n) * ln 2
//
// Results are clamped to at least 1.
type sizer struct{}

// NewSizer returns a BloomSizer implementation.
func NewSizer() blocklist.BloomSizer { return sizer{} }

func (sizer) Size(n uint64, p float64) (uint64, uint8) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = DefaultFPRate
	}
	m := uint64(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
	if m == 0 {
		m = 1
	}
	k := uint8(math.Max(1, math.Round((float64(m)/float64(n))*math.Ln2)))
	return m, k
}
