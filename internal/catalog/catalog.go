// Package catalog holds the static pricing catalog: every purchasable service
// with its fixed price, grouped into named categories. The catalog is loaded
// once at process start from an embedded definition file and is immutable
// afterwards.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// DefaultBusinessDays is the delivery estimate for entries without an
// explicit per-service value.
const DefaultBusinessDays = 3

// Entry is a purchasable service with a fixed price.
type Entry struct {
	ID           string
	Name         string
	Description  string
	PriceCents   int64
	BusinessDays int
}

// Category is a named group of entries.
type Category struct {
	Key     string
	Name    string
	Entries []Entry
}

// Catalog is the immutable set of categories plus an id index.
type Catalog struct {
	categories []Category
	byID       map[string]Entry
}

type yamlEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       int64  `yaml:"price"`
	Days        int    `yaml:"days"`
}

type yamlCategory struct {
	Key     string      `yaml:"key"`
	Name    string      `yaml:"name"`
	Entries []yamlEntry `yaml:"entries"`
}

type yamlCatalog struct {
	Categories []yamlCategory `yaml:"categories"`
}

// Load parses the embedded catalog definition. It fails on duplicate entry
// ids across all categories combined and on non-positive prices.
func Load() (*Catalog, error) {
	var raw yamlCatalog
	if err := yaml.Unmarshal(catalogYAML, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	cat := &Catalog{byID: make(map[string]Entry)}
	for _, yc := range raw.Categories {
		category := Category{Key: yc.Key, Name: yc.Name}
		for _, ye := range yc.Entries {
			if ye.ID == "" {
				return nil, fmt.Errorf("catalog category %q has an entry without an id", yc.Key)
			}
			if _, exists := cat.byID[ye.ID]; exists {
				return nil, fmt.Errorf("duplicate catalog entry id %q", ye.ID)
			}
			if ye.Price <= 0 {
				return nil, fmt.Errorf("catalog entry %q has non-positive price", ye.ID)
			}

			days := ye.Days
			if days <= 0 {
				days = DefaultBusinessDays
			}

			entry := Entry{
				ID:           ye.ID,
				Name:         ye.Name,
				Description:  ye.Description,
				PriceCents:   ye.Price * 100, // catalog prices are whole rand
				BusinessDays: days,
			}
			category.Entries = append(category.Entries, entry)
			cat.byID[ye.ID] = entry
		}
		cat.categories = append(cat.categories, category)
	}

	return cat, nil
}

// Categories returns the catalog grouped by category, in definition order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Lookup returns the entry for the given id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	entry, ok := c.byID[id]
	return entry, ok
}

// BusinessDays returns the delivery estimate for an id, defaulting for
// unmapped ids.
func (c *Catalog) BusinessDays(id string) int {
	if entry, ok := c.byID[id]; ok {
		return entry.BusinessDays
	}
	return DefaultBusinessDays
}
