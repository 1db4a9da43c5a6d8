package registry

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/alharis/haris/internal/haris/domain"
)

func src(id string) domain.SourceDescriptor {
	return domain.SourceDescriptor{ID: id, URL: "https://lists.example/" + id, Format: domain.SourceFormatPlain}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(
		domain.Category{Name: "adult", Classification: domain.ClassificationMandatory, Sources: []domain.SourceDescriptor{src("a1"), src("a2")}},
		domain.Category{Name: "gambling", Classification: domain.ClassificationMandatory, Sources: []domain.SourceDescriptor{src("g1")}},
		domain.Category{Name: "chat", Classification: domain.ClassificationOptional, Sources: []domain.SourceDescriptor{src("c1")}},
		domain.Category{Name: "gaming", Classification: domain.ClassificationOptional, Sources: []domain.SourceDescriptor{src("x1")}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestRegistry_Partition(t *testing.T) {
	r := testRegistry(t)

	if got, want := r.Mandatory(), []string{"adult", "gambling"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Mandatory() = %v, want %v", got, want)
	}
	if got, want := r.Optional(), []string{"chat", "gaming"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Optional() = %v, want %v", got, want)
	}
	if got, want := r.Names(), []string{"adult", "chat", "gambling", "gaming"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	list := r.List()
	if !reflect.DeepEqual(list.Mandatory, r.Mandatory()) || !reflect.DeepEqual(list.Optional, r.Optional()) {
		t.Errorf("List() = %+v", list)
	}
	if !r.IsMandatory("adult") || r.IsMandatory("chat") || r.IsMandatory("nope") {
		t.Error("IsMandatory mismatch")
	}
	if !r.IsOptional("chat") || r.IsOptional("adult") || r.IsOptional("nope") {
		t.Error("IsOptional mismatch")
	}
}

func TestRegistry_SourcesAreOrderedCopies(t *testing.T) {
	r := testRegistry(t)

	s, ok := r.Sources("adult")
	if !ok || len(s) != 2 || s[0].ID != "a1" || s[1].ID != "a2" {
		t.Fatalf("Sources(adult) = %v, %v", s, ok)
	}
	s[0].ID = "mutated"
	again, _ := r.Sources("adult")
	if again[0].ID != "a1" {
		t.Error("Sources leaked internal slice")
	}
	if _, ok := r.Sources("missing"); ok {
		t.Error("expected missing category")
	}
}

func TestRegistry_UnknownAndValidateSelection(t *testing.T) {
	r := testRegistry(t)

	if got := r.Unknown([]string{"chat", "gaming"}); len(got) != 0 {
		t.Errorf("Unknown(valid) = %v, want empty", got)
	}
	if got, want := r.Unknown([]string{"chat", "zzz", "adult", "zzz"}), []string{"adult", "zzz"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Unknown = %v, want %v", got, want)
	}

	if err := r.ValidateSelection([]string{"chat"}); err != nil {
		t.Errorf("ValidateSelection(valid) = %v", err)
	}
	if err := r.ValidateSelection(nil); err != nil {
		t.Errorf("ValidateSelection(empty) = %v", err)
	}

	err := r.ValidateSelection([]string{"chat", "casino", "gambling"})
	if !errors.Is(err, domain.ErrInvalidCategoryRequest) {
		t.Fatalf("expected ErrInvalidCategoryRequest, got %v", err)
	}
	var ice *domain.InvalidCategoryRequestError
	if !errors.As(err, &ice) {
		t.Fatalf("expected *InvalidCategoryRequestError, got %T", err)
	}
	if !reflect.DeepEqual(ice.Unknown, []string{"casino"}) || !reflect.DeepEqual(ice.Mandatory, []string{"gambling"}) {
		t.Errorf("unexpected error detail: %+v", ice)
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cats []domain.Category
		want string
	}{
		{"none", nil, "no categories"},
		{"empty name", []domain.Category{{Sources: []domain.SourceDescriptor{src("a")}}}, "empty name"},
		{"duplicate", []domain.Category{
			{Name: "a", Sources: []domain.SourceDescriptor{src("a")}},
			{Name: "a", Sources: []domain.SourceDescriptor{src("b")}},
		}, "duplicate category"},
		{"no sources", []domain.Category{{Name: "a"}}, "no sources"},
		{"shared source id", []domain.Category{
			{Name: "a", Sources: []domain.SourceDescriptor{src("s")}},
			{Name: "b", Sources: []domain.SourceDescriptor{src("s")}},
		}, "used by both"},
		{"bad scheme", []domain.Category{{Name: "a", Sources: []domain.SourceDescriptor{{ID: "s", URL: "ftp://x/y"}}}}, "unsupported url scheme"},
		{"no host", []domain.Category{{Name: "a", Sources: []domain.SourceDescriptor{{ID: "s", URL: "https:///y"}}}}, "no host"},
		{"bad format", []domain.Category{{Name: "a", Sources: []domain.SourceDescriptor{{ID: "s", URL: "https://x/y", Format: 42}}}}, "unsupported format"},
		{"bad classification", []domain.Category{{Name: "a", Classification: 9, Sources: []domain.SourceDescriptor{src("s")}}}, "classification"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cats...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("New() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	r := Default()
	if got, want := r.Mandatory(), []string{"adult", "gambling"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Default mandatory = %v, want %v", got, want)
	}
	for _, name := range []string{"chat", "gaming", "social_media"} {
		if !r.IsOptional(name) {
			t.Errorf("expected %q to be optional", name)
		}
	}
}
