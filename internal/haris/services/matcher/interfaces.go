package matcher

import "github.com/alharis/haris/internal/haris/repos/blocklist"

// SnapshotMatcher resolves category matches of a normalized domain against
// the active snapshot.
type SnapshotMatcher interface {
	Match(name string) (version uint64, matches []blocklist.Match)
}

// Classifier tells mandatory categories from selectable ones.
type Classifier interface {
	IsMandatory(name string) bool
	IsOptional(name string) bool
}
