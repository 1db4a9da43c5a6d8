package refresh

import (
	"context"

	"github.com/alharis/haris/internal/haris/domain"
	"github.com/alharis/haris/internal/haris/repos/blocklist"
)

// SourceFetcher downloads the raw body of one source.
type SourceFetcher interface {
	Fetch(ctx context.Context, src domain.SourceDescriptor) ([]byte, error)
}

// SnapshotStore holds the active snapshot.
type SnapshotStore interface {
	Current() *blocklist.Snapshot
	Publish(s *blocklist.Snapshot) error
}

// CategorySource lists the categories to build and their sources.
type CategorySource interface {
	Categories() []domain.Category
}
