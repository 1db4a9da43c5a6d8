package domain

import (
	"fmt"
	"strings"
)

// Classification tells whether a category is always enforced or selectable
// per account.
type Classification uint8

const (
	// ClassificationOptional categories are enabled per account.
	ClassificationOptional Classification = iota
	// ClassificationMandatory categories are always enforced.
	ClassificationMandatory
)

// String returns a stable string representation of the classification.
func (c Classification) String() string {
	switch c {
	case ClassificationOptional:
		return "optional"
	case ClassificationMandatory:
		return "mandatory"
	default:
		return fmt.Sprintf("Classification(%d)", c)
	}
}

// ParseClassification converts "mandatory" or "optional" (case-insensitive).
func ParseClassification(s string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "optional":
		return ClassificationOptional, nil
	case "mandatory":
		return ClassificationMandatory, nil
	default:
		return 0, fmt.Errorf("unsupported classification: %q", s)
	}
}

// SourceFormat describes the line format of an external list.
type SourceFormat uint8

const (
	// SourceFormatPlain is one domain per line with optional "#" comments.
	SourceFormatPlain SourceFormat = iota
	// SourceFormatHosts is an /etc/hosts style file; the address column is ignored.
	SourceFormatHosts
	// SourceFormatAdblock keeps only "||domain^" network rules.
	SourceFormatAdblock
)

// String returns a stable string representation of the format.
func (f SourceFormat) String() string {
	switch f {
	case SourceFormatPlain:
		return "plain"
	case SourceFormatHosts:
		return "hosts"
	case SourceFormatAdblock:
		return "adblock"
	default:
		return fmt.Sprintf("SourceFormat(%d)", f)
	}
}

// ParseSourceFormat converts a format name (case-insensitive). "domains" is
// accepted as an alias of "plain".
func ParseSourceFormat(s string) (SourceFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "domains":
		return SourceFormatPlain, nil
	case "hosts":
		return SourceFormatHosts, nil
	case "adblock":
		return SourceFormatAdblock, nil
	default:
		return 0, fmt.Errorf("unsupported source format: %q", s)
	}
}

// SourceDescriptor identifies one external list feeding a category.
type SourceDescriptor struct {
	ID     string       // stable identifier, unique across the registry
	URL    string       // http(s):// or file:// location
	Format SourceFormat // expected line format
}

// Category is a named group of sources.
type Category struct {
	Name           string
	Classification Classification
	Sources        []SourceDescriptor
}

// IsMandatory reports whether the category is always enforced.
func (c Category) IsMandatory() bool { return c.Classification == ClassificationMandatory }

// CategoryList is the vocabulary presented to accounts.
type CategoryList struct {
	Mandatory []string `json:"mandatory"`
	Optional  []string `json:"optional"`
}
