package blocklist

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

func snapshotWith(version uint64, adult ...string) *Snapshot {
	return NewSnapshot(version, time.Now(), map[string]*DomainSet{
		"adult": NewDomainSet(adult),
	}, nil, nil, 0)
}

func TestStore_StartsEmpty(t *testing.T) {
	s := NewStore(nil, nil)
	if cur := s.Current(); cur == nil || cur.Version != 0 {
		t.Fatalf("expected empty version 0 snapshot, got %+v", cur)
	}
	if v, m := s.Match("pornhub.com"); v != 0 || m != nil {
		t.Fatalf("expected no match, got %d %v", v, m)
	}
}

func TestStore_PublishSwapsAndPurges(t *testing.T) {
	cache := newFakeCache()
	s := NewStore(cache, nil)

	if err := s.Publish(snapshotWith(1, "pornhub.com")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	v, m := s.Match("www.pornhub.com")
	if v != 1 || !reflect.DeepEqual(m, []Match{{Category: "adult", Rule: "pornhub.com"}}) {
		t.Fatalf("Match = %d %+v", v, m)
	}
	// second lookup is served from cache
	s.Match("www.pornhub.com")
	if cache.putCalls != 1 || cache.getCalls != 2 {
		t.Fatalf("cache calls get=%d put=%d", cache.getCalls, cache.putCalls)
	}

	if err := s.Publish(snapshotWith(2, "xvideos.com")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if cache.purgeCalls != 2 {
		t.Fatalf("purgeCalls = %d, want 2", cache.purgeCalls)
	}
	if _, m := s.Match("www.pornhub.com"); m != nil {
		t.Fatalf("old snapshot data leaked after publish: %+v", m)
	}

	st := s.Stats()
	if st.Version != 2 || st.Categories != 1 || st.Domains != 1 || st.UpdatedUnix == 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestStore_PublishRejectsStaleOrNil(t *testing.T) {
	s := NewStore(nil, nil)
	if err := s.Publish(nil); err == nil {
		t.Fatal("expected error for nil snapshot")
	}
	if err := s.Publish(snapshotWith(3)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	for _, v := range []uint64{3, 2} {
		if err := s.Publish(snapshotWith(v)); !errors.Is(err, ErrStaleSnapshot) {
			t.Fatalf("Publish(v%d) err = %v, want ErrStaleSnapshot", v, err)
		}
	}
	if s.Current().Version != 3 {
		t.Fatalf("active version changed on rejected publish")
	}
}

// Readers racing a stream of publishes must always observe one complete
// snapshot: every snapshot lists exactly one domain named after its version.
func TestStore_ConcurrentPublishAndRead(t *testing.T) {
	s := NewStore(newFakeCache(), nil)
	const versions = 200

	var wg sync.WaitGroup
	done := make(chan struct{})
	errs := make(chan error, 8)

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := s.Current()
				if snap.Version == 0 {
					continue
				}
				want := fmt.Sprintf("v%d.example.com", snap.Version)
				set, ok := snap.Set("adult")
				if !ok || set.Len() != 1 || !set.Contains(want) {
					errs <- fmt.Errorf("torn snapshot at version %d", snap.Version)
					return
				}
				if got := snap.Lookup(want); len(got) != 1 {
					errs <- fmt.Errorf("lookup inconsistent at version %d", snap.Version)
					return
				}
			}
		}()
	}

	for v := uint64(1); v <= versions; v++ {
		if err := s.Publish(snapshotWith(v, fmt.Sprintf("v%d.example.com", v))); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	close(done)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestStore_StatsReportPrefilter(t *testing.T) {
	s := NewStore(nil, nil)
	if st := s.Stats(); st.Prefilter != (PrefilterStats{}) {
		t.Fatalf("empty store prefilter = %+v", st.Prefilter)
	}
	snap := NewSnapshot(1, time.Now(), map[string]*DomainSet{
		"adult":    NewDomainSet([]string{"pornhub.com", "xvideos.com"}),
		"gambling": NewDomainSet([]string{"bet365.com"}),
	}, nil, &fakeFactory{}, 0.01)
	if err := s.Publish(snap); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := PrefilterStats{Bits: 64, Hashes: 1, ApproxLen: 3}
	if got := s.Stats().Prefilter; got != want {
		t.Fatalf("Prefilter = %+v, want %+v", got, want)
	}
}
