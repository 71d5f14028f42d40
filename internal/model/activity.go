package model

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Activity represents one regulated activity as listed in the catalog
type Activity struct {
	Name          string `yaml:"name"`           // Human-readable activity name
	URI           string `yaml:"uri"`            // Activity identifier used by the activity detail endpoint
	Group         string `yaml:"group"`          // Activity group the activity belongs to
	RuleReference string `yaml:"rule_reference"` // Reference to the governing rule
}

// Catalog is the input of a run: the ordered activity list plus the area
// names used to resolve location identifiers
type Catalog struct {
	Activities []Activity        `yaml:"activities"`
	Areas      map[string]string `yaml:"areas"` // Area index (no leading zeros) -> area name
}

// LoadCatalog reads and validates a catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if catalog.Areas == nil {
		catalog.Areas = make(map[string]string)
	}

	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	return &catalog, nil
}

// Validate checks that every activity has a URI and that URIs are unique
func (c *Catalog) Validate() error {
	var errs []error
	seen := make(map[string]int, len(c.Activities))

	for i, a := range c.Activities {
		if a.URI == "" {
			errs = append(errs, fmt.Errorf("activity %d (%q): uri is required", i+1, a.Name))
			continue
		}
		if first, ok := seen[a.URI]; ok {
			errs = append(errs, fmt.Errorf("activity %d: duplicate uri %s (first seen at %d)", i+1, a.URI, first))
			continue
		}
		seen[a.URI] = i + 1
	}

	return errors.Join(errs...)
}
