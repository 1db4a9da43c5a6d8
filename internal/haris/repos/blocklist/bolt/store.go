package bolt

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/alharis/haris/internal/haris/domain"
	"github.com/alharis/haris/internal/haris/repos/blocklist"
)

var (
	bucketCategories = []byte("categories")
	bucketMeta       = []byte("meta")
	bucketSources    = []byte("sources")

	keyVersion = []byte("version")
	keyCreated = []byte("created")
	keyStatus  = []byte("status")

	present = []byte{1}
)

// snapshotStore implements blocklist.Persister using bbolt. The database
// holds a single snapshot: one nested bucket of domains per category, one per
// source last good set, plus version, creation time and status in the meta
// bucket.
type snapshotStore struct {
	db      *bbolt.DB
	factory blocklist.BloomFactory
	fpRate  float64
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
// factory and fpRate size the prefilter of snapshots returned by Load.
func New(path string, factory blocklist.BloomFactory, fpRate float64) (blocklist.Persister, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketCategories); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &snapshotStore{db: db, factory: factory, fpRate: fpRate}, nil
}

func (s *snapshotStore) Close() error { return s.db.Close() }

// Save replaces the stored snapshot in a single transaction.
func (s *snapshotStore) Save(snap *blocklist.Snapshot) error {
	if snap == nil {
		return errors.New("bolt: nil snapshot")
	}
	status, err := json.Marshal(snap.Status)
	if err != nil {
		return fmt.Errorf("bolt: encoding status: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := putSets(tx, bucketCategories, snap.Categories); err != nil {
			return err
		}
		if err := putSets(tx, bucketSources, snap.Sources); err != nil {
			return err
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyVersion, u64(snap.Version)); err != nil {
			return err
		}
		if err := meta.Put(keyCreated, u64(uint64(snap.CreatedAt.UnixNano()))); err != nil {
			return err
		}
		return meta.Put(keyStatus, status)
	})
}

// Load returns the stored snapshot, or (nil, nil) if none was saved.
func (s *snapshotStore) Load() (*blocklist.Snapshot, error) {
	var (
		version    uint64
		created    time.Time
		status     map[string]domain.CategoryStatus
		categories = make(map[string]*blocklist.DomainSet)
		sources    = make(map[string]*blocklist.DomainSet)
		found      bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		v := meta.Get(keyVersion)
		if len(v) != 8 {
			return nil
		}
		found = true
		version = binary.BigEndian.Uint64(v)
		if c := meta.Get(keyCreated); len(c) == 8 {
			created = time.Unix(0, int64(binary.BigEndian.Uint64(c))).UTC()
		}
		if raw := meta.Get(keyStatus); len(raw) > 0 {
			if err := json.Unmarshal(raw, &status); err != nil {
				return fmt.Errorf("bolt: decoding status: %w", err)
			}
		}

		if err := readSets(tx, bucketCategories, categories); err != nil {
			return err
		}
		return readSets(tx, bucketSources, sources)
	})
	if err != nil || !found {
		return nil, err
	}
	snap := blocklist.NewSnapshot(version, created, categories, status, s.factory, s.fpRate)
	return snap.WithSources(sources), nil
}

// putSets replaces the top-level bucket name with one nested bucket per set.
func putSets(tx *bbolt.Tx, name []byte, sets map[string]*blocklist.DomainSet) error {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
		return err
	}
	top, err := tx.CreateBucket(name)
	if err != nil {
		return err
	}
	for key, set := range sets {
		b, err := top.CreateBucket([]byte(key))
		if err != nil {
			return fmt.Errorf("bolt: %s %q: %w", name, key, err)
		}
		b.FillPercent = 1.0
		// Sorted keys keep the append-only fill optimal.
		for _, d := range set.Domains() {
			if err := b.Put([]byte(d), present); err != nil {
				return err
			}
		}
	}
	return nil
}

// readSets loads every nested bucket of name into dst. A missing bucket
// yields nothing.
func readSets(tx *bbolt.Tx, name []byte, dst map[string]*blocklist.DomainSet) error {
	top := tx.Bucket(name)
	if top == nil {
		return nil
	}
	return top.ForEachBucket(func(key []byte) error {
		b := top.Bucket(key)
		names := make([]string, 0, b.Stats().KeyN)
		if err := b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		}); err != nil {
			return err
		}
		dst[string(key)] = blocklist.NewDomainSet(names)
		return nil
	})
}

func u64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

var _ blocklist.Persister = (*snapshotStore)(nil)
