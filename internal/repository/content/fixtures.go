// Package content provides the content engines feeds query: an in-memory
// engine over YAML fixtures and a RediSearch engine over item hashes.
package content

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
)

// Fixtures is a content snapshot: the term registry per taxonomy and the items.
type Fixtures struct {
	Terms map[string][]result.Term `yaml:"terms"`
	Items []result.Item            `yaml:"items"`
}

// LoadFixtures reads and validates a fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes fixtures YAML and fills defaults.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := f.normalize(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixtures) normalize() error {
	seen := make(map[string]struct{}, len(f.Items))
	for i := range f.Items {
		it := &f.Items[i]
		if it.ID == "" {
			return fmt.Errorf("items[%d]: id is required", i)
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("items[%d]: duplicate id %s", i, it.ID)
		}
		seen[it.ID] = struct{}{}
		if it.Type == "" {
			it.Type = "post"
		}
		if it.Modified.IsZero() {
			it.Modified = it.Date
		}
	}
	for tax, terms := range f.Terms {
		for i := range terms {
			if terms[i].Slug == "" {
				return errors.New("terms." + tax + ": slug is required")
			}
			if terms[i].ID == "" {
				terms[i].ID = terms[i].Slug
			}
			if terms[i].Name == "" {
				terms[i].Name = terms[i].Slug
			}
			terms[i].Taxonomy = tax
		}
	}
	return nil
}
