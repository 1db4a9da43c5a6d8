package domain

import "time"

// ChildProfile is a device profile governed by a parent account's settings.
type ChildProfile struct {
	ID         uint64    `json:"id"`
	ParentID   uint64    `json:"parent_id"`
	Name       string    `json:"name"`
	DeviceName string    `json:"device_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChildFeed is what a child device downloads to enforce its parent's
// settings locally.
type ChildFeed struct {
	ChildID         uint64   `json:"child_id"`
	SnapshotVersion uint64   `json:"snapshot_version"`
	Categories      []string `json:"categories"` // mandatory followed by enabled optional
	EnabledOptional []string `json:"enabled_categories"`
	BlockedDomains  []string `json:"blocked_urls"`
	AllowedDomains  []string `json:"allowed_urls"`
}
