// Package prefs stores per-account category choices, overrides and child
// profiles in a relational database through gorm.
package prefs

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/alharis/haris/internal/haris/common/utils"
	"github.com/alharis/haris/internal/haris/domain"
)

// Repository is the gorm-backed preferences store.
type Repository struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite database at path and migrates the schema.
func Open(path string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("prefs: opening %s: %w", path, err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(&Account{}, &EnabledCategory{}, &OverrideRule{}, &Child{}); err != nil {
		return nil, fmt.Errorf("prefs: migrating: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateAccount inserts a new account and returns its ID.
func (r *Repository) CreateAccount(ctx context.Context, name string) (uint64, error) {
	a := Account{Name: name}
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return 0, fmt.Errorf("prefs: creating account: %w", err)
	}
	return a.ID, nil
}

func (r *Repository) requireAccount(ctx context.Context, accountID uint64) error {
	var a Account
	err := r.db.WithContext(ctx).Select("id").Where("id = ?", accountID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("prefs: account %d: %w", accountID, domain.ErrNotFound)
	}
	return err
}

// EnabledCategories returns the optional categories enabled for an account,
// sorted by name.
func (r *Repository) EnabledCategories(ctx context.Context, accountID uint64) ([]string, error) {
	if err := r.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	var names []string
	err := r.db.WithContext(ctx).Model(&EnabledCategory{}).
		Where("account_id = ?", accountID).
		Order("category").
		Pluck("category", &names).Error
	if err != nil {
		return nil, fmt.Errorf("prefs: listing categories: %w", err)
	}
	return names, nil
}

// SetCategoryEnabled turns a category on or off for an account. Both
// directions are idempotent.
func (r *Repository) SetCategoryEnabled(ctx context.Context, accountID uint64, category string, enabled bool) error {
	if err := r.requireAccount(ctx, accountID); err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	if !enabled {
		return db.Where("account_id = ? AND category = ?", accountID, category).
			Delete(&EnabledCategory{}).Error
	}
	return db.Where(EnabledCategory{AccountID: accountID, Category: category}).
		FirstOrCreate(&EnabledCategory{}).Error
}

// Overrides returns the overrides of an account in insertion order.
func (r *Repository) Overrides(ctx context.Context, accountID uint64) ([]domain.Override, error) {
	if err := r.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	var rows []OverrideRule
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("prefs: listing overrides: %w", err)
	}
	out := make([]domain.Override, 0, len(rows))
	for _, row := range rows {
		v, err := domain.ParseVerdict(row.Verdict)
		if err != nil {
			return nil, fmt.Errorf("prefs: override %d: %w", row.ID, err)
		}
		out = append(out, domain.Override{Target: row.Host, Verdict: v})
	}
	return out, nil
}

// AddOverride stores an override for an account. The target is normalized
// first; a malformed target is rejected with domain.ErrMalformedDomain.
// Adding the same host and verdict twice keeps a single row.
func (r *Repository) AddOverride(ctx context.Context, accountID uint64, o domain.Override) error {
	host, err := utils.NormalizeDomain(o.Target)
	if err != nil {
		return err
	}
	if err := r.requireAccount(ctx, accountID); err != nil {
		return err
	}
	row := OverrideRule{AccountID: accountID, Host: host, Verdict: o.Verdict.String()}
	return r.db.WithContext(ctx).Where(row).
		Attrs(OverrideRule{Target: o.Target}).
		FirstOrCreate(&OverrideRule{}).Error
}

// CreateChild attaches a new child profile to a parent account.
func (r *Repository) CreateChild(ctx context.Context, parentID uint64, name, deviceName string) (uint64, error) {
	if err := r.requireAccount(ctx, parentID); err != nil {
		return 0, err
	}
	c := Child{ParentID: parentID, Name: name, DeviceName: deviceName}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return 0, fmt.Errorf("prefs: creating child: %w", err)
	}
	return c.ID, nil
}

// ListChildren returns the children of an account, oldest first.
func (r *Repository) ListChildren(ctx context.Context, parentID uint64) ([]domain.ChildProfile, error) {
	if err := r.requireAccount(ctx, parentID); err != nil {
		return nil, err
	}
	var rows []Child
	if err := r.db.WithContext(ctx).Where("parent_id = ?", parentID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("prefs: listing children: %w", err)
	}
	out := make([]domain.ChildProfile, 0, len(rows))
	for _, c := range rows {
		out = append(out, domain.ChildProfile{ID: c.ID, ParentID: c.ParentID, Name: c.Name, DeviceName: c.DeviceName, CreatedAt: c.CreatedAt})
	}
	return out, nil
}

// ChildParent returns the account owning a child profile.
func (r *Repository) ChildParent(ctx context.Context, childID uint64) (uint64, error) {
	var c Child
	err := r.db.WithContext(ctx).Where("id = ?", childID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("prefs: child %d: %w", childID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return c.ParentID, nil
}
