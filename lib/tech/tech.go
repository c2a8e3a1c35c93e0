// Package tech holds the static database-connectivity comparison cards shown
// next to the catalog. Nothing here touches the database.
package tech

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed technologies.json
var technologiesJSON []byte

// Technology is one comparison card.
type Technology struct {
	ID          string   `json:"id"`
	Name        string   `json:"nombre"`
	Color       string   `json:"color"`
	Description string   `json:"descripcion"`
	Example     string   `json:"ejemplo"`
	Pros        []string `json:"ventajas"`
	Cons        []string `json:"desventajas"`
}

// Catalog is an immutable, ordered set of technologies.
type Catalog struct {
	items []Technology
	byID  map[string]int
}

// Load parses the embedded technology list.
func Load() (*Catalog, error) {
	var items []Technology
	if err := json.Unmarshal(technologiesJSON, &items); err != nil {
		return nil, fmt.Errorf("failed to parse technologies: %w", err)
	}

	c := &Catalog{items: items, byID: make(map[string]int, len(items))}
	for i, t := range items {
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate technology id %q", t.ID)
		}
		c.byID[t.ID] = i
	}
	return c, nil
}

// All returns a copy of every technology in display order.
func (c *Catalog) All() []Technology {
	out := make([]Technology, len(c.items))
	copy(out, c.items)
	return out
}

// Lookup finds a technology by id, ignoring case.
func (c *Catalog) Lookup(id string) (Technology, bool) {
	i, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Technology{}, false
	}
	return c.items[i], true
}
