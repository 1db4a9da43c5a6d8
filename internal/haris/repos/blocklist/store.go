package blocklist

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/alharis/haris/internal/haris/common/log"
)

// ErrStaleSnapshot is returned when publishing a snapshot whose version does
// not advance the active one.
var ErrStaleSnapshot = errors.New("snapshot version does not advance")

// Store holds the active snapshot. Readers never block: Current is a single
// atomic load, and Publish swaps the pointer in one step so a reader sees
// either the old or the new snapshot, never a mix.
type Store struct {
	current atomic.Pointer[Snapshot]
	cache   MatchCache
	logger  log.Logger
}

// NewStore returns a store holding the empty snapshot. cache may be nil.
func NewStore(cache MatchCache, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	s := &Store{cache: cache, logger: logger}
	s.current.Store(EmptySnapshot())
	return s
}

// Current returns the active snapshot. It is never nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish makes snap the active snapshot and drops cached matches.
func (s *Store) Publish(snap *Snapshot) error {
	if snap == nil {
		return errors.New("blocklist: nil snapshot")
	}
	prev := s.current.Load()
	if snap.Version <= prev.Version {
		return fmt.Errorf("blocklist: publishing version %d over %d: %w", snap.Version, prev.Version, ErrStaleSnapshot)
	}
	if !s.current.CompareAndSwap(prev, snap) {
		return fmt.Errorf("blocklist: concurrent publish of version %d: %w", snap.Version, ErrStaleSnapshot)
	}
	if s.cache != nil {
		s.cache.Purge()
	}
	s.logger.Info(map[string]any{
		"version":    snap.Version,
		"previous":   prev.Version,
		"categories": len(snap.Categories),
		"domains":    snap.TotalDomains(),
	}, "snapshot published")
	return nil
}

// Match returns the category matches of a normalized name against the
// active snapshot, together with that snapshot's version.
func (s *Store) Match(name string) (uint64, []Match) {
	snap := s.Current()
	if s.cache != nil {
		if m, ok := s.cache.Get(snap.Version, name); ok {
			return snap.Version, m
		}
	}
	m := snap.Match(name)
	if s.cache != nil {
		s.cache.Put(snap.Version, name, m)
	}
	return snap.Version, m
}

// Stats describes the active snapshot and cache.
func (s *Store) Stats() StoreStats {
	snap := s.Current()
	st := StoreStats{
		Version:    snap.Version,
		Categories: len(snap.Categories),
		Domains:    snap.TotalDomains(),
		Prefilter:  snap.PrefilterStats(),
	}
	if !snap.CreatedAt.IsZero() {
		st.UpdatedUnix = snap.CreatedAt.Unix()
	}
	if s.cache != nil {
		st.Cache = s.cache.Stats()
	}
	return st
}
