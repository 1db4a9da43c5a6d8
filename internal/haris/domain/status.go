package domain

import (
	"fmt"
	"time"
)

// IngestStatus summarizes the last refresh of one category.
type IngestStatus uint8

const (
	// IngestSuccess means every source of the category was fetched.
	IngestSuccess IngestStatus = iota
	// IngestPartial means at least one, but not every, source was fetched.
	IngestPartial
	// IngestFailed means no source was fetched; previous data is retained.
	IngestFailed
)

// String returns a stable string representation of the status.
func (s IngestStatus) String() string {
	switch s {
	case IngestSuccess:
		return "success"
	case IngestPartial:
		return "partial"
	case IngestFailed:
		return "failed"
	default:
		return fmt.Sprintf("IngestStatus(%d)", s)
	}
}

// ParseIngestStatus converts the String form back.
func ParseIngestStatus(s string) (IngestStatus, error) {
	switch s {
	case "success":
		return IngestSuccess, nil
	case "partial":
		return IngestPartial, nil
	case "failed":
		return IngestFailed, nil
	default:
		return 0, fmt.Errorf("unsupported ingest status: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s IngestStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *IngestStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseIngestStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CategoryStatus is the per-category ingestion record carried by a snapshot.
type CategoryStatus struct {
	Name            string       `json:"name"`
	Status          IngestStatus `json:"status"`
	Size            int          `json:"size"`              // domains held in the snapshot
	LastSuccessSize int          `json:"last_success_size"` // domains held after the last non-failed refresh
	LastSuccessAt   time.Time    `json:"last_success_at"`   // zero if the category never ingested
	SourcesOK       int          `json:"sources_ok"`
	SourcesFailed   int          `json:"sources_failed"`
	LastError       string       `json:"last_error,omitempty"`
}

// EverSucceeded reports whether the category has ever been ingested.
func (s CategoryStatus) EverSucceeded() bool { return !s.LastSuccessAt.IsZero() }

// RefreshStatus is the observability view of the active snapshot.
type RefreshStatus struct {
	Version         uint64                    `json:"version"`
	LastRefreshedAt time.Time                 `json:"last_refreshed_at"`
	Ready           bool                      `json:"ready"`
	Categories      map[string]CategoryStatus `json:"categories"`
}
