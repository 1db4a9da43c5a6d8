package parental

import (
	"context"
	"fmt"
	"sort"

	"github.com/alharis/haris/internal/haris/common/log"
	"github.com/alharis/haris/internal/haris/common/utils"
	"github.com/alharis/haris/internal/haris/domain"
)

// Settings is an account's blocking configuration.
type Settings struct {
	AccountID  uint64              `json:"account_id"`
	Enabled    []string            `json:"enabled_categories"`
	Overrides  []domain.Override   `json:"overrides"`
	Available  []string            `json:"available_categories"`
	Categories domain.CategoryList `json:"categories"`
}

// Service is the account-facing surface of the blocklist engine.
type Service struct {
	prefs   Preferences
	catalog Catalog
	decider Decider
	status  StatusReporter
	logger  log.Logger
}

// Options wires a Service.
type Options struct {
	Preferences Preferences
	Catalog     Catalog
	Decider     Decider
	Status      StatusReporter
	Logger      log.Logger
}

// New returns a Service.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Service{
		prefs:   opts.Preferences,
		catalog: opts.Catalog,
		decider: opts.Decider,
		status:  opts.Status,
		logger:  opts.Logger,
	}
}

// ListCategories returns the mandatory and optional vocabularies.
func (s *Service) ListCategories() domain.CategoryList {
	return s.catalog.List()
}

// RefreshStatus describes the active snapshot.
func (s *Service) RefreshStatus() domain.RefreshStatus {
	return s.status.Status()
}

// Ready reports whether matching queries can be served.
func (s *Service) Ready() bool {
	return s.status.Ready()
}

// UpdateCategories replaces the enabled optional categories of an account.
// Unknown or mandatory names reject the whole request with an
// *domain.InvalidCategoryRequestError and change nothing.
func (s *Service) UpdateCategories(ctx context.Context, accountID uint64, names []string) ([]string, error) {
	if err := s.catalog.ValidateSelection(names); err != nil {
		return nil, err
	}
	current, err := s.prefs.EnabledCategories(ctx, accountID)
	if err != nil {
		return nil, err
	}

	desired := toSet(names)
	have := toSet(current)
	for c := range have {
		if _, keep := desired[c]; !keep {
			if err := s.prefs.SetCategoryEnabled(ctx, accountID, c, false); err != nil {
				return nil, fmt.Errorf("disabling %s: %w", c, err)
			}
		}
	}
	for c := range desired {
		if _, ok := have[c]; !ok {
			if err := s.prefs.SetCategoryEnabled(ctx, accountID, c, true); err != nil {
				return nil, fmt.Errorf("enabling %s: %w", c, err)
			}
		}
	}

	enabled := sortedKeys(desired)
	s.logger.Info(map[string]any{"account": accountID, "enabled": enabled}, "categories updated")
	return enabled, nil
}

// BlockURL adds a block override for the host of target.
func (s *Service) BlockURL(ctx context.Context, accountID uint64, target string) (domain.Override, error) {
	return s.addOverride(ctx, accountID, domain.BlockOverride(target))
}

// AllowURL adds an allow override for the host of target. It never lifts a
// block override.
func (s *Service) AllowURL(ctx context.Context, accountID uint64, target string) (domain.Override, error) {
	return s.addOverride(ctx, accountID, domain.AllowOverride(target))
}

func (s *Service) addOverride(ctx context.Context, accountID uint64, o domain.Override) (domain.Override, error) {
	host, err := utils.NormalizeDomain(o.Target)
	if err != nil {
		return domain.Override{}, err
	}
	// The store keeps the submitted target next to the host it normalizes to.
	if err := s.prefs.AddOverride(ctx, accountID, o); err != nil {
		return domain.Override{}, err
	}
	s.logger.Info(map[string]any{"account": accountID, "host": host, "verdict": o.Verdict.String()}, "override added")
	return domain.Override{Target: host, Verdict: o.Verdict}, nil
}

// Settings returns the configuration of an account.
func (s *Service) Settings(ctx context.Context, accountID uint64) (Settings, error) {
	enabled, overrides, err := s.load(ctx, accountID)
	if err != nil {
		return Settings{}, err
	}
	list := s.catalog.List()
	return Settings{
		AccountID:  accountID,
		Enabled:    enabled,
		Overrides:  overrides,
		Available:  list.Optional,
		Categories: list,
	}, nil
}

// Check evaluates a domain for an account.
func (s *Service) Check(ctx context.Context, accountID uint64, raw string) (domain.BlockDecision, error) {
	enabled, overrides, err := s.load(ctx, accountID)
	if err != nil {
		return domain.BlockDecision{}, err
	}
	return s.decider.Decide(raw, enabled, overrides), nil
}

// CreateAccount registers a parent account with no optional categories
// enabled and no overrides.
func (s *Service) CreateAccount(ctx context.Context, name string) (uint64, error) {
	id, err := s.prefs.CreateAccount(ctx, name)
	if err != nil {
		return 0, err
	}
	s.logger.Info(map[string]any{"account": id}, "account created")
	return id, nil
}

// CreateChild attaches a child profile to an account.
func (s *Service) CreateChild(ctx context.Context, parentID uint64, name, deviceName string) (uint64, error) {
	id, err := s.prefs.CreateChild(ctx, parentID, name, deviceName)
	if err != nil {
		return 0, err
	}
	s.logger.Info(map[string]any{"account": parentID, "child": id}, "child created")
	return id, nil
}

// ListChildren returns the child profiles of an account.
func (s *Service) ListChildren(ctx context.Context, parentID uint64) ([]domain.ChildProfile, error) {
	return s.prefs.ListChildren(ctx, parentID)
}

// ChildFeed assembles what a child device needs to enforce its parent's
// settings: every category to block and the override hosts.
func (s *Service) ChildFeed(ctx context.Context, childID uint64) (domain.ChildFeed, error) {
	parentID, err := s.prefs.ChildParent(ctx, childID)
	if err != nil {
		return domain.ChildFeed{}, err
	}
	enabled, overrides, err := s.load(ctx, parentID)
	if err != nil {
		return domain.ChildFeed{}, err
	}

	feed := domain.ChildFeed{
		ChildID:         childID,
		SnapshotVersion: s.status.Status().Version,
		Categories:      append(s.catalog.List().Mandatory, enabled...),
		EnabledOptional: enabled,
		BlockedDomains:  []string{},
		AllowedDomains:  []string{},
	}
	for _, o := range overrides {
		switch o.Verdict {
		case domain.VerdictBlock:
			feed.BlockedDomains = append(feed.BlockedDomains, o.Target)
		case domain.VerdictAllow:
			feed.AllowedDomains = append(feed.AllowedDomains, o.Target)
		}
	}
	return feed, nil
}

func (s *Service) load(ctx context.Context, accountID uint64) ([]string, []domain.Override, error) {
	enabled, err := s.prefs.EnabledCategories(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	overrides, err := s.prefs.Overrides(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	if enabled == nil {
		enabled = []string{}
	}
	if overrides == nil {
		overrides = []domain.Override{}
	}
	return enabled, overrides, nil
}

func toSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
