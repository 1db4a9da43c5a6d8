package blocklist

import (
	"sort"

	"github.com/alharis/haris/internal/haris/common/utils"
)

// DomainSet is an immutable set of normalized domains. An entry covers
// itself and every subdomain on a label boundary.
type DomainSet struct {
	m map[string]struct{}
}

// NewDomainSet builds a set from already normalized names. Empty names are
// dropped.
func NewDomainSet(names []string) *DomainSet {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			m[n] = struct{}{}
		}
	}
	return &DomainSet{m: m}
}

// Union returns a new set holding the members of every non-nil set.
func Union(sets ...*DomainSet) *DomainSet {
	size := 0
	for _, s := range sets {
		size += s.Len()
	}
	m := make(map[string]struct{}, size)
	for _, s := range sets {
		if s == nil {
			continue
		}
		for n := range s.m {
			m[n] = struct{}{}
		}
	}
	return &DomainSet{m: m}
}

// Len returns the number of entries. A nil set is empty.
func (s *DomainSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Contains reports exact membership.
func (s *DomainSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.m[name]
	return ok
}

// Covers returns the most specific entry that equals name or is one of its
// parent domains.
func (s *DomainSet) Covers(name string) (string, bool) {
	if s.Len() == 0 {
		return "", false
	}
	for _, a := range utils.Ancestors(name) {
		if _, ok := s.m[a]; ok {
			return a, true
		}
	}
	return "", false
}

// Domains returns the entries in sorted order.
func (s *DomainSet) Domains() []string {
	out := make([]string, 0, s.Len())
	if s == nil {
		return out
	}
	for n := range s.m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// each calls fn for every entry in unspecified order.
func (s *DomainSet) each(fn func(string)) {
	if s == nil {
		return
	}
	for n := range s.m {
		fn(n)
	}
}
