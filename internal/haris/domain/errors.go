package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSourceUnavailable marks a network, timeout or status failure of one source.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedEntry marks a single unusable line in a source list.
	ErrMalformedEntry = errors.New("malformed entry")
	// ErrMalformedDomain marks input that cannot be normalized into a domain.
	ErrMalformedDomain = errors.New("malformed domain")
	// ErrInvalidCategoryRequest marks a category selection naming unknown or
	// mandatory categories.
	ErrInvalidCategoryRequest = errors.New("invalid category request")
	// ErrNotFound marks a missing account or child record.
	ErrNotFound = errors.New("not found")
)

// SourceError is the typed failure returned by the fetcher for one source.
type SourceError struct {
	SourceID string
	URL      string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s (%s): %v", e.SourceID, e.URL, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Is makes every SourceError match ErrSourceUnavailable.
func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

// InvalidCategoryRequestError lists the offending names of a category update.
type InvalidCategoryRequestError struct {
	Unknown   []string // names outside the optional vocabulary
	Mandatory []string // mandatory categories named explicitly
}

func (e *InvalidCategoryRequestError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Unknown) > 0 {
		parts = append(parts, "invalid categories: "+strings.Join(e.Unknown, ", "))
	}
	if len(e.Mandatory) > 0 {
		parts = append(parts, "mandatory categories cannot be toggled: "+strings.Join(e.Mandatory, ", "))
	}
	return strings.Join(parts, "; ")
}

// Is makes every InvalidCategoryRequestError match ErrInvalidCategoryRequest.
func (e *InvalidCategoryRequestError) Is(target error) bool {
	return target == ErrInvalidCategoryRequest
}

// NewInvalidCategoryRequestError returns nil when both lists are empty.
func NewInvalidCategoryRequestError(unknown, mandatory []string) error {
	if len(unknown) == 0 && len(mandatory) == 0 {
		return nil
	}
	u := append([]string(nil), unknown...)
	m := append([]string(nil), mandatory...)
	sort.Strings(u)
	sort.Strings(m)
	return &InvalidCategoryRequestError{Unknown: u, Mandatory: m}
}
