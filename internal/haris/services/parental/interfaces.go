package parental

import (
	"context"

	"github.com/alharis/haris/internal/haris/domain"
)

// Preferences is the relational store of per-account settings.
type Preferences interface {
	CreateAccount(ctx context.Context, name string) (uint64, error)
	EnabledCategories(ctx context.Context, accountID uint64) ([]string, error)
	SetCategoryEnabled(ctx context.Context, accountID uint64, category string, enabled bool) error
	Overrides(ctx context.Context, accountID uint64) ([]domain.Override, error)
	AddOverride(ctx context.Context, accountID uint64, o domain.Override) error
	CreateChild(ctx context.Context, parentID uint64, name, deviceName string) (uint64, error)
	ListChildren(ctx context.Context, parentID uint64) ([]domain.ChildProfile, error)
	ChildParent(ctx context.Context, childID uint64) (uint64, error)
}

// Catalog is the category vocabulary.
type Catalog interface {
	List() domain.CategoryList
	ValidateSelection(names []string) error
}

// Decider evaluates one domain for an account.
type Decider interface {
	Decide(raw string, enabled []string, overrides []domain.Override) domain.BlockDecision
}

// StatusReporter describes the active snapshot.
type StatusReporter interface {
	Status() domain.RefreshStatus
	Ready() bool
}
