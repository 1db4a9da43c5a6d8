package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/alharis/haris/internal/haris/common/clock"
	"github.com/alharis/haris/internal/haris/common/log"
	"github.com/alharis/haris/internal/haris/domain"
	"github.com/alharis/haris/internal/haris/repos/blocklist"
	"github.com/alharis/haris/internal/haris/repos/blocklist/parsers"
)

const (
	DefaultInterval    = 6 * time.Hour
	DefaultCeiling     = 10 * time.Minute
	DefaultConcurrency = 8
)

// ErrNoUsableEntries marks a source whose body parsed into zero domains.
var ErrNoUsableEntries = errors.New("no usable entries")

// Options configures a Refresher. Registry, Fetcher and Store are required.
type Options struct {
	Registry     CategorySource
	Fetcher      SourceFetcher
	Store        SnapshotStore
	Persister    blocklist.Persister    // optional
	BloomFactory blocklist.BloomFactory // optional
	FPRate       float64
	Interval     time.Duration
	Ceiling      time.Duration
	Concurrency  int
	Clock        clock.Clock
	Logger       log.Logger
}

// Refresher builds and publishes snapshots. Refreshes are serialized: a call
// made while another is running waits for it to publish first.
type Refresher struct {
	mu sync.Mutex

	registry    CategorySource
	fetcher     SourceFetcher
	store       SnapshotStore
	persister   blocklist.Persister
	factory     blocklist.BloomFactory
	fpRate      float64
	interval    time.Duration
	ceiling     time.Duration
	concurrency int
	clock       clock.Clock
	logger      log.Logger

	// lastGood holds the latest successfully parsed set per source ID.
	// Guarded by mu.
	lastGood map[string]*blocklist.DomainSet
	built    atomic.Bool
}

// New validates opts and returns a Refresher.
func New(opts Options) (*Refresher, error) {
	if opts.Registry == nil || opts.Fetcher == nil || opts.Store == nil {
		return nil, errors.New("refresh: registry, fetcher and store are required")
	}
	r := &Refresher{
		registry:    opts.Registry,
		fetcher:     opts.Fetcher,
		store:       opts.Store,
		persister:   opts.Persister,
		factory:     opts.BloomFactory,
		fpRate:      opts.FPRate,
		interval:    opts.Interval,
		ceiling:     opts.Ceiling,
		concurrency: opts.Concurrency,
		clock:       opts.Clock,
		logger:      opts.Logger,
		lastGood:    make(map[string]*blocklist.DomainSet),
	}
	if r.interval <= 0 {
		r.interval = DefaultInterval
	}
	if r.ceiling <= 0 {
		r.ceiling = DefaultCeiling
	}
	if r.concurrency <= 0 {
		r.concurrency = DefaultConcurrency
	}
	if r.clock == nil {
		r.clock = clock.RealClock{}
	}
	if r.logger == nil {
		r.logger = log.NewNoopLogger()
	}
	return r, nil
}

type sourceResult struct {
	set   *blocklist.DomainSet
	stats parsers.Stats
	err   error
}

// Refresh fetches every source, builds a new snapshot and publishes it. Source
// failures never fail the call; categories fall back to previously ingested
// data instead. Sources still pending when the ceiling expires count as
// failed and the snapshot is published even when nothing could be fetched.
// If ctx itself ends before the fetches finish, the cycle is abandoned and
// nothing is published.
func (r *Refresher) Refresh(ctx context.Context) (*blocklist.Snapshot, error) {
	return r.refresh(ctx, r.ceiling)
}

func (r *Refresher) refresh(ctx context.Context, ceiling time.Duration) (*blocklist.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	start := r.clock.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, ceiling)
	defer cancel()

	categories := r.registry.Categories()
	results := r.fetchAll(fetchCtx, categories)

	if err := ctx.Err(); err != nil {
		r.recordLastGood(results)
		r.logger.Warn(map[string]any{"error": err, "took": r.clock.Now().Sub(start).String()}, "refresh abandoned")
		return nil, fmt.Errorf("refresh: abandoned: %w", err)
	}

	prev := r.store.Current()
	now := r.clock.Now()
	sets := make(map[string]*blocklist.DomainSet, len(categories))
	status := make(map[string]domain.CategoryStatus, len(categories))
	for _, c := range categories {
		set, cs := r.buildCategory(c, results, prev, now)
		sets[c.Name] = set
		status[c.Name] = cs
	}
	r.recordLastGood(results)

	snap := blocklist.NewSnapshot(prev.Version+1, now, sets, status, r.factory, r.fpRate).WithSources(r.lastGood)
	if err := r.store.Publish(snap); err != nil {
		return nil, fmt.Errorf("refresh: publishing: %w", err)
	}
	r.built.Store(true)
	r.logSummary(snap, r.clock.Now().Sub(start))

	if r.persister != nil {
		if err := r.persister.Save(snap); err != nil {
			r.logger.Warn(map[string]any{"version": snap.Version, "error": err}, "snapshot persist failed")
		}
	}
	return snap, nil
}

func (r *Refresher) recordLastGood(results map[string]sourceResult) {
	for id, res := range results {
		if res.err == nil {
			r.lastGood[id] = res.set
		}
	}
}

// seedLastGood restores per-source sets saved with a persisted snapshot.
func (r *Refresher) seedLastGood(sources map[string]*blocklist.DomainSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, set := range sources {
		if _, ok := r.lastGood[id]; !ok {
			r.lastGood[id] = set
		}
	}
}

// buildCategory merges the per-source results of c. Failed sources fall back
// to their last good set. The category's previous set is used only for a
// failed source with no last good set, which happens when restoring a
// snapshot saved without per-source data.
func (r *Refresher) buildCategory(c domain.Category, results map[string]sourceResult, prev *blocklist.Snapshot, now time.Time) (*blocklist.DomainSet, domain.CategoryStatus) {
	prevSet, hasPrev := prev.Set(c.Name)
	prevStatus := prev.Status[c.Name]

	var (
		parts        []*blocklist.DomainSet
		errs         error
		ok, failed   int
		usedPrevious bool
	)
	for _, src := range c.Sources {
		res := results[src.ID]
		if res.err == nil {
			ok++
			parts = append(parts, res.set)
			continue
		}
		failed++
		errs = multierr.Append(errs, res.err)
		if lg, found := r.lastGood[src.ID]; found {
			parts = append(parts, lg)
		} else if hasPrev && !usedPrevious {
			parts = append(parts, prevSet)
			usedPrevious = true
		}
	}

	cs := domain.CategoryStatus{
		Name:            c.Name,
		SourcesOK:       ok,
		SourcesFailed:   failed,
		LastSuccessAt:   prevStatus.LastSuccessAt,
		LastSuccessSize: prevStatus.LastSuccessSize,
	}
	if errs != nil {
		cs.LastError = errs.Error()
	}

	var set *blocklist.DomainSet
	switch {
	case failed == 0:
		cs.Status = domain.IngestSuccess
		set = blocklist.Union(parts...)
	case ok > 0:
		cs.Status = domain.IngestPartial
		set = blocklist.Union(parts...)
	default:
		cs.Status = domain.IngestFailed
		if hasPrev {
			set = prevSet
		} else {
			set = blocklist.Union(parts...)
		}
	}
	if ok > 0 {
		cs.LastSuccessAt = now
		cs.LastSuccessSize = set.Len()
	}
	cs.Size = set.Len()
	return set, cs
}

// fetchAll downloads and parses every source concurrently, bounded by the
// configured concurrency. Sources still pending when ctx ends fail.
func (r *Refresher) fetchAll(ctx context.Context, categories []domain.Category) map[string]sourceResult {
	var (
		mu      sync.Mutex
		results = make(map[string]sourceResult)
		g       errgroup.Group
	)
	g.SetLimit(r.concurrency)
	for _, c := range categories {
		for _, src := range c.Sources {
			g.Go(func() error {
				res := r.fetchSource(ctx, src)
				mu.Lock()
				results[src.ID] = res
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()
	return results
}

func (r *Refresher) fetchSource(ctx context.Context, src domain.SourceDescriptor) sourceResult {
	if err := ctx.Err(); err != nil {
		return sourceResult{err: &domain.SourceError{SourceID: src.ID, URL: src.URL, Err: err}}
	}
	body, err := r.fetcher.Fetch(ctx, src)
	if err != nil {
		return sourceResult{err: err}
	}
	parsed, err := parsers.Parse(src.Format, body, src.ID, r.logger)
	if err != nil {
		return sourceResult{err: fmt.Errorf("source %s: parsing: %w", src.ID, err)}
	}
	if len(parsed.Domains) == 0 {
		return sourceResult{err: fmt.Errorf("source %s: %w (%d malformed)", src.ID, ErrNoUsableEntries, parsed.Stats.Malformed)}
	}
	r.logger.Debug(map[string]any{
		"source":     src.ID,
		"accepted":   parsed.Stats.Accepted,
		"duplicates": parsed.Stats.Duplicates,
		"malformed":  parsed.Stats.Malformed,
		"ignored":    parsed.Stats.Ignored,
	}, "source parsed")
	return sourceResult{set: blocklist.NewDomainSet(parsed.Domains), stats: parsed.Stats}
}

func (r *Refresher) logSummary(snap *blocklist.Snapshot, took time.Duration) {
	counts := map[domain.IngestStatus]int{}
	for name, cs := range snap.Status {
		counts[cs.Status]++
		if cs.Status != domain.IngestSuccess {
			r.logger.Warn(map[string]any{
				"category": name,
				"status":   cs.Status.String(),
				"size":     cs.Size,
				"error":    cs.LastError,
			}, "category refresh degraded")
		}
	}
	r.logger.Info(map[string]any{
		"version":  snap.Version,
		"domains":  snap.TotalDomains(),
		"success":  counts[domain.IngestSuccess],
		"partial":  counts[domain.IngestPartial],
		"failed":   counts[domain.IngestFailed],
		"duration": took.String(),
	}, "refresh complete")
}

// Bootstrap restores the persisted snapshot, if any, and then runs the first
// refresh with its ceiling lowered to startupTimeout. Sources still pending
// at that point fail for this cycle, leaving the service on whatever data was
// restored.
func (r *Refresher) Bootstrap(ctx context.Context, startupTimeout time.Duration) error {
	if r.persister != nil {
		snap, err := r.persister.Load()
		switch {
		case err != nil:
			r.logger.Warn(map[string]any{"error": err}, "snapshot restore failed")
		case snap != nil:
			if err := r.store.Publish(snap); err != nil {
				r.logger.Warn(map[string]any{"version": snap.Version, "error": err}, "snapshot restore rejected")
			} else {
				r.seedLastGood(snap.Sources)
				r.logger.Info(map[string]any{"version": snap.Version, "created_at": snap.CreatedAt, "sources": len(snap.Sources)}, "snapshot restored")
			}
		}
	}

	ceiling := r.ceiling
	if startupTimeout > 0 && startupTimeout < ceiling {
		ceiling = startupTimeout
	}
	_, err := r.refresh(ctx, ceiling)
	return err
}

// Run refreshes on every interval tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Error(map[string]any{"error": err}, "refresh failed")
			}
		}
	}
}

// Ready reports whether the first build finished and at least one category
// holds data that was ingested at some point.
func (r *Refresher) Ready() bool {
	if !r.built.Load() {
		return false
	}
	for _, cs := range r.store.Current().Status {
		if cs.EverSucceeded() {
			return true
		}
	}
	return false
}

// Status describes the active snapshot.
func (r *Refresher) Status() domain.RefreshStatus {
	snap := r.store.Current()
	st := domain.RefreshStatus{
		Version:         snap.Version,
		LastRefreshedAt: snap.CreatedAt,
		Ready:           r.Ready(),
		Categories:      make(map[string]domain.CategoryStatus, len(snap.Status)),
	}
	for name, cs := range snap.Status {
		st.Categories[name] = cs
	}
	return st
}
