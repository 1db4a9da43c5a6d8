package httpapi

import (
	"context"

	"github.com/alharis/haris/internal/haris/domain"
	"github.com/alharis/haris/internal/haris/services/parental"
)

// Service is the account-facing engine surface served over HTTP.
type Service interface {
	ListCategories() domain.CategoryList
	RefreshStatus() domain.RefreshStatus
	Ready() bool
	CreateAccount(ctx context.Context, name string) (uint64, error)
	Settings(ctx context.Context, accountID uint64) (parental.Settings, error)
	UpdateCategories(ctx context.Context, accountID uint64, names []string) ([]string, error)
	BlockURL(ctx context.Context, accountID uint64, target string) (domain.Override, error)
	AllowURL(ctx context.Context, accountID uint64, target string) (domain.Override, error)
	Check(ctx context.Context, accountID uint64, raw string) (domain.BlockDecision, error)
	CreateChild(ctx context.Context, parentID uint64, name, deviceName string) (uint64, error)
	ListChildren(ctx context.Context, parentID uint64) ([]domain.ChildProfile, error)
	ChildFeed(ctx context.Context, childID uint64) (domain.ChildFeed, error)
}

// Refresher triggers an out-of-schedule snapshot rebuild.
type Refresher interface {
	Refresh(ctx context.Context) (version uint64, err error)
}

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func(ctx context.Context) (uint64, error)

// Refresh implements Refresher.
func (f RefreshFunc) Refresh(ctx context.Context) (uint64, error) { return f(ctx) }
