package registry

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/alharis/haris/internal/haris/domain"
)

// fileCatalog mirrors the YAML catalog document.
type fileCatalog struct {
	Categories []fileCategory `koanf:"categories" validate:"required,min=1,dive"`
}

// fileCategory mirrors one entry of the YAML catalog.
type fileCategory struct {
	Name           string       `koanf:"name" validate:"required,category_name"`
	Classification string       `koanf:"classification" validate:"required,oneof=mandatory optional"`
	Sources        []fileSource `koanf:"sources" validate:"required,min=1,dive"`
}

type fileSource struct {
	ID     string `koanf:"id" validate:"required"`
	URL    string `koanf:"url" validate:"required,url"`
	Format string `koanf:"format" validate:"required,oneof=plain domains hosts adblock"`
}

var categoryNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

func validCategoryName(fl validator.FieldLevel) bool {
	return categoryNamePattern.MatchString(fl.Field().String())
}

// fileLoader reads the YAML document at path into k. Replaced in tests.
var fileLoader = func(k *koanf.Koanf, path string) error {
	return k.Load(file.Provider(path), yaml.Parser())
}

// LoadFile builds a Registry from a YAML catalog of the form:
//
//	categories:
//	  - name: adult
//	    classification: mandatory
//	    sources:
//	      - id: stevenblack-porn-only
//	        url: https://example.org/hosts
//	        format: hosts
func LoadFile(path string) (*Registry, error) {
	k := koanf.New(".")
	if err := fileLoader(k, path); err != nil {
		return nil, fmt.Errorf("registry: loading %s: %w", path, err)
	}

	var catalog fileCatalog
	if err := k.Unmarshal("", &catalog); err != nil {
		return nil, fmt.Errorf("registry: decoding %s: %w", path, err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("category_name", validCategoryName); err != nil {
		return nil, fmt.Errorf("registry: registering validation: %w", err)
	}
	if err := validate.Struct(&catalog); err != nil {
		return nil, fmt.Errorf("registry: validation failed: %w", err)
	}

	categories := make([]domain.Category, 0, len(catalog.Categories))
	for _, e := range catalog.Categories {
		class, err := domain.ParseClassification(e.Classification)
		if err != nil {
			return nil, fmt.Errorf("registry: category %q: %w", e.Name, err)
		}
		c := domain.Category{Name: e.Name, Classification: class}
		for _, s := range e.Sources {
			format, err := domain.ParseSourceFormat(s.Format)
			if err != nil {
				return nil, fmt.Errorf("registry: source %q: %w", s.ID, err)
			}
			c.Sources = append(c.Sources, domain.SourceDescriptor{ID: s.ID, URL: s.URL, Format: format})
		}
		categories = append(categories, c)
	}
	return New(categories...)
}
