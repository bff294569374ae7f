package catalog

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Entry describes one guided meditation in the static catalog.
type Entry struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Audio       string `yaml:"audio" json:"audio"`
	Image       string `yaml:"image" json:"image"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is the static lookup of guided meditations. It never mutates.
type Catalog struct {
	entries []Entry
	byID    map[string]Entry
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	var entries []Entry
	if err := yaml.Unmarshal(catalogYAML, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.ID == "" || e.Title == "" {
			return nil, fmt.Errorf("catalog entry missing id or title: %+v", e)
		}
		if _, dup := byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", e.ID)
		}
		byID[e.ID] = e
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return &Catalog{entries: entries, byID: byID}, nil
}

// Get looks up a meditation by id.
func (c *Catalog) Get(id string) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// List returns all entries ordered by id.
func (c *Catalog) List() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
