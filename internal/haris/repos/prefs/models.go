package prefs

import "time"

// Account is a parent account owning category choices and overrides.
type Account struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"size:191"`
	CreatedAt time.Time
}

// EnabledCategory records one optional category turned on for an account.
type EnabledCategory struct {
	ID        uint64 `gorm:"primaryKey"`
	AccountID uint64 `gorm:"not null;uniqueIndex:idx_account_category"`
	Category  string `gorm:"size:64;not null;uniqueIndex:idx_account_category"`
	CreatedAt time.Time
}

// OverrideRule is a per-account block or allow entry. Target keeps what the
// parent submitted; Host is its normalized domain.
type OverrideRule struct {
	ID        uint64 `gorm:"primaryKey"`
	AccountID uint64 `gorm:"not null;uniqueIndex:idx_account_override"`
	Host      string `gorm:"size:255;not null;uniqueIndex:idx_account_override"`
	Verdict   string `gorm:"size:8;not null;uniqueIndex:idx_account_override"`
	Target    string `gorm:"size:2048"`
	CreatedAt time.Time
}

// Child is a device profile attached to a parent account.
type Child struct {
	ID         uint64 `gorm:"primaryKey"`
	ParentID   uint64 `gorm:"not null;index"`
	Name       string `gorm:"size:191"`
	DeviceName string `gorm:"size:191"`
	CreatedAt  time.Time
}
