// Package catalog reads a term's course catalog from YAML and keeps the
// course store in sync with it.
//
// A catalog file looks like:
//
//	term: Autumn 2026
//	sections:
//	  - section: 30000-01
//	    title: Financial Accounting
//	    course: "30000"
//	    instructor: Kleymenova, Anya
//	    time: Mon 8:30
//	    location: Harper C04
//	    hours: 6
//	    interesting: 3.9
//	    recommend: 4.5
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"boothbot/internal/logging"
	"boothbot/internal/store"
)

// ErrInvalidCatalog is returned when a catalog parses but fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Entry is one section as written in the catalog file.
type Entry struct {
	Section     string  `yaml:"section"`
	Title       string  `yaml:"title"`
	Course      string  `yaml:"course"`
	Instructor  string  `yaml:"instructor"`
	Time        string  `yaml:"time"`
	Location    string  `yaml:"location"`
	Hours       float64 `yaml:"hours"`
	Interesting float64 `yaml:"interesting"`
	Recommend   float64 `yaml:"recommend"`
}

// Catalog is a parsed and validated catalog file.
type Catalog struct {
	Term     string  `yaml:"term"`
	Sections []Entry `yaml:"sections"`
}

// Load reads and validates the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every entry has a section id and title and that
// no section id appears twice. Ids are compared case-insensitively, the
// same way the store resolves them.
func (c *Catalog) Validate() error {
	if len(c.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidCatalog)
	}
	seen := make(map[string]int, len(c.Sections))
	for i, e := range c.Sections {
		id := strings.TrimSpace(e.Section)
		if id == "" {
			return fmt.Errorf("%w: entry %d has no section id", ErrInvalidCatalog, i+1)
		}
		if strings.TrimSpace(e.Title) == "" {
			return fmt.Errorf("%w: section %s has no title", ErrInvalidCatalog, id)
		}
		if e.Hours < 0 || e.Interesting < 0 || e.Recommend < 0 {
			return fmt.Errorf("%w: section %s has a negative rating", ErrInvalidCatalog, id)
		}
		key := strings.ToLower(id)
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("%w: section %s appears in entries %d and %d", ErrInvalidCatalog, id, prev, i+1)
		}
		seen[key] = i + 1
	}
	return nil
}

// StoreSections converts the catalog into rows for store.UpsertSections.
func (c *Catalog) StoreSections() []store.Section {
	out := make([]store.Section, 0, len(c.Sections))
	for _, e := range c.Sections {
		out = append(out, store.Section{
			Title:       strings.TrimSpace(e.Title),
			Course:      strings.TrimSpace(e.Course),
			Section:     strings.TrimSpace(e.Section),
			Instructor:  strings.TrimSpace(e.Instructor),
			Time:        e.Time,
			Location:    e.Location,
			Hours:       e.Hours,
			Interesting: e.Interesting,
			Recommend:   e.Recommend,
		})
	}
	return out
}

// Importer receives catalog rows. *store.CourseStore satisfies it.
type Importer interface {
	UpsertSections(ctx context.Context, sections []store.Section) (int, error)
}

// Import loads the catalog at path and writes its sections to dst.
func Import(ctx context.Context, dst Importer, path string) (*Catalog, int, error) {
	c, err := Load(path)
	if err != nil {
		return nil, 0, err
	}
	n, err := dst.UpsertSections(ctx, c.StoreSections())
	if err != nil {
		return c, 0, err
	}
	logging.Catalog("Imported %d sections for term %q from %s", n, c.Term, path)
	return c, n, nil
}
