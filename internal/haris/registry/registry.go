// Package registry holds the static catalog of blocklist categories and the
// sources that feed them.
package registry

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/alharis/haris/internal/haris/domain"
)

// Registry is an immutable category catalog. It is built once at startup;
// adding or removing a category is a configuration change.
type Registry struct {
	categories map[string]domain.Category
	names      []string
	mandatory  []string
	optional   []string
}

// New validates the categories and builds a Registry.
func New(categories ...domain.Category) (*Registry, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("registry: no categories")
	}
	r := &Registry{categories: make(map[string]domain.Category, len(categories))}
	sourceIDs := make(map[string]string)

	for _, c := range categories {
		if c.Name == "" {
			return nil, fmt.Errorf("registry: category with empty name")
		}
		if _, dup := r.categories[c.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate category %q", c.Name)
		}
		switch c.Classification {
		case domain.ClassificationMandatory, domain.ClassificationOptional:
		default:
			return nil, fmt.Errorf("registry: category %q: unsupported classification %v", c.Name, c.Classification)
		}
		if len(c.Sources) == 0 {
			return nil, fmt.Errorf("registry: category %q has no sources", c.Name)
		}
		for _, s := range c.Sources {
			if err := validateSource(s); err != nil {
				return nil, fmt.Errorf("registry: category %q: %w", c.Name, err)
			}
			if owner, dup := sourceIDs[s.ID]; dup {
				return nil, fmt.Errorf("registry: source %q used by both %q and %q", s.ID, owner, c.Name)
			}
			sourceIDs[s.ID] = c.Name
		}

		c.Sources = append([]domain.SourceDescriptor(nil), c.Sources...)
		r.categories[c.Name] = c
		r.names = append(r.names, c.Name)
		if c.IsMandatory() {
			r.mandatory = append(r.mandatory, c.Name)
		} else {
			r.optional = append(r.optional, c.Name)
		}
	}
	sort.Strings(r.names)
	sort.Strings(r.mandatory)
	sort.Strings(r.optional)
	return r, nil
}

func validateSource(s domain.SourceDescriptor) error {
	if s.ID == "" {
		return fmt.Errorf("source with empty id")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("source %q: bad url: %w", s.ID, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("source %q: url has no host", s.ID)
		}
	case "file":
		if u.Path == "" {
			return fmt.Errorf("source %q: file url has no path", s.ID)
		}
	default:
		return fmt.Errorf("source %q: unsupported url scheme %q", s.ID, u.Scheme)
	}
	switch s.Format {
	case domain.SourceFormatPlain, domain.SourceFormatHosts, domain.SourceFormatAdblock:
	default:
		return fmt.Errorf("source %q: unsupported format %v", s.ID, s.Format)
	}
	return nil
}

// Categories returns every category sorted by name.
func (r *Registry) Categories() []domain.Category {
	out := make([]domain.Category, 0, len(r.names))
	for _, n := range r.names {
		c := r.categories[n]
		c.Sources = append([]domain.SourceDescriptor(nil), c.Sources...)
		out = append(out, c)
	}
	return out
}

// Category returns the named category.
func (r *Registry) Category(name string) (domain.Category, bool) {
	c, ok := r.categories[name]
	return c, ok
}

// Sources returns the ordered source descriptors of a category.
func (r *Registry) Sources(name string) ([]domain.SourceDescriptor, bool) {
	c, ok := r.categories[name]
	if !ok {
		return nil, false
	}
	return append([]domain.SourceDescriptor(nil), c.Sources...), true
}

// Names returns every category name, sorted.
func (r *Registry) Names() []string { return append([]string(nil), r.names...) }

// Mandatory returns the always-enforced category names, sorted.
func (r *Registry) Mandatory() []string { return append([]string(nil), r.mandatory...) }

// Optional returns the selectable category names, sorted.
func (r *Registry) Optional() []string { return append([]string(nil), r.optional...) }

// List returns the vocabulary presented to accounts.
func (r *Registry) List() domain.CategoryList {
	return domain.CategoryList{Mandatory: r.Mandatory(), Optional: r.Optional()}
}

// IsMandatory reports whether name is a mandatory category.
func (r *Registry) IsMandatory(name string) bool {
	c, ok := r.categories[name]
	return ok && c.IsMandatory()
}

// IsOptional reports whether name is an optional category.
func (r *Registry) IsOptional(name string) bool {
	c, ok := r.categories[name]
	return ok && !c.IsMandatory()
}

// Unknown returns the names outside the optional vocabulary, deduplicated and
// sorted. An empty result means every name may be enabled.
func (r *Registry) Unknown(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, n := range names {
		if r.IsOptional(n) {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ValidateSelection checks a requested set of enabled categories. Mandatory
// categories are always enforced, so naming one explicitly is rejected just
// like naming an unknown category. The returned error, if any, is a
// *domain.InvalidCategoryRequestError.
func (r *Registry) ValidateSelection(names []string) error {
	var unknown, mandatory []string
	for _, n := range r.Unknown(names) {
		if r.IsMandatory(n) {
			mandatory = append(mandatory, n)
		} else {
			unknown = append(unknown, n)
		}
	}
	return domain.NewInvalidCategoryRequestError(unknown, mandatory)
}
