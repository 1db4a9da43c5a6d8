package blocklist

import (
	"sort"
	"time"

	"github.com/alharis/haris/internal/haris/common/utils"
	"github.com/alharis/haris/internal/haris/domain"
)

// Match names a category covering a domain and the entry that matched.
type Match struct {
	Category string
	Rule     string
}

// Snapshot is an immutable, versioned view of every category's domain set.
// It is never modified after construction.
type Snapshot struct {
	Version    uint64
	CreatedAt  time.Time
	Categories map[string]*DomainSet
	Status     map[string]domain.CategoryStatus
	// Sources holds the last successfully parsed set per source ID. It
	// seeds stale fallback after a restart and takes no part in matching.
	Sources map[string]*DomainSet

	prefilter BloomFilter
}

// NewSnapshot assembles a snapshot. When factory is non-nil a Bloom filter
// over the union of all domains is built so that lookups of unlisted names
// avoid probing every category.
func NewSnapshot(version uint64, createdAt time.Time, categories map[string]*DomainSet, status map[string]domain.CategoryStatus, factory BloomFactory, fpRate float64) *Snapshot {
	cats := make(map[string]*DomainSet, len(categories))
	for name, set := range categories {
		if set == nil {
			set = NewDomainSet(nil)
		}
		cats[name] = set
	}
	st := make(map[string]domain.CategoryStatus, len(status))
	for name, cs := range status {
		st[name] = cs
	}

	s := &Snapshot{Version: version, CreatedAt: createdAt, Categories: cats, Status: st}
	if factory != nil {
		var n uint64
		for _, set := range cats {
			n += uint64(set.Len())
		}
		bf := factory.New(n, fpRate)
		for _, set := range cats {
			set.each(func(name string) { bf.Add([]byte(name)) })
		}
		s.prefilter = bf
	}
	return s
}

// WithSources returns a copy of s carrying the given per-source sets.
func (s *Snapshot) WithSources(sources map[string]*DomainSet) *Snapshot {
	c := *s
	c.Sources = make(map[string]*DomainSet, len(sources))
	for id, set := range sources {
		if set != nil {
			c.Sources[id] = set
		}
	}
	return &c
}

// EmptySnapshot is the version 0 snapshot active before the first build.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(0, time.Time{}, nil, nil, nil, 0)
}

// Set returns the domain set of a category.
func (s *Snapshot) Set(category string) (*DomainSet, bool) {
	set, ok := s.Categories[category]
	return set, ok
}

// Match returns every category whose set covers name, sorted by category.
// name must already be normalized.
func (s *Snapshot) Match(name string) []Match {
	if name == "" || len(s.Categories) == 0 || !s.mightCover(name) {
		return nil
	}
	var out []Match
	for cat, set := range s.Categories {
		if rule, ok := set.Covers(name); ok {
			out = append(out, Match{Category: cat, Rule: rule})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Lookup returns the names of the categories covering name, sorted.
func (s *Snapshot) Lookup(name string) []string {
	matches := s.Match(name)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Category
	}
	return out
}

// TotalDomains counts entries across categories. A domain listed by two
// categories counts twice.
func (s *Snapshot) TotalDomains() int {
	n := 0
	for _, set := range s.Categories {
		n += set.Len()
	}
	return n
}

// PrefilterStats reports the geometry of the snapshot's Bloom filter.
func (s *Snapshot) PrefilterStats() PrefilterStats {
	if s.prefilter == nil {
		return PrefilterStats{}
	}
	return PrefilterStats{
		Bits:      s.prefilter.Bits(),
		Hashes:    s.prefilter.Hashes(),
		ApproxLen: s.prefilter.ApproxLen(),
	}
}

// mightCover consults the prefilter for name and each parent domain. A false
// result is definitive.
func (s *Snapshot) mightCover(name string) bool {
	if s.prefilter == nil {
		return true
	}
	for _, a := range utils.Ancestors(name) {
		if s.prefilter.MightContain([]byte(a)) {
			return true
		}
	}
	return false
}
