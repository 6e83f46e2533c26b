// Package catalog is the local matcher: a small seed list of well-known
// services, parts and shops matched in memory so common terms return
// something before any remote source answers.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/repairhub/repair-search/internal/models"
	"github.com/repairhub/repair-search/internal/routes"
	"github.com/repairhub/repair-search/internal/textmatch"
)

var ErrEmptyCatalog = errors.New("catalog has no entries")

type Entry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	URL      string `yaml:"url"`
}

type Catalog struct {
	Services []Entry `yaml:"services"`
	Parts    []Entry `yaml:"parts"`
	Shops    []Entry `yaml:"shops"`
}

func (c *Catalog) Len() int {
	return len(c.Services) + len(c.Parts) + len(c.Shops)
}

// Default is the built-in seed used when no catalog file is configured.
func Default() *Catalog {
	return &Catalog{
		Services: []Entry{
			{ID: "seed-svc-screen", Name: "iPhone Screen Repair", Category: "Screen Repair"},
			{ID: "seed-svc-battery", Name: "Battery Replacement", Category: "Battery"},
			{ID: "seed-svc-charging", Name: "Charging Port Repair", Category: "Charging"},
			{ID: "seed-svc-water", Name: "Water Damage Repair", Category: "Water Damage"},
			{ID: "seed-svc-laptop", Name: "Laptop Keyboard Replacement", Category: "Laptop Repair"},
			{ID: "seed-svc-camera", Name: "Camera Lens Repair", Category: "Camera"},
		},
		Parts: []Entry{
			{ID: "seed-part-oled", Name: "OLED Display Assembly", Category: "Screens"},
			{ID: "seed-part-battery", Name: "Li-ion Battery Pack", Category: "Batteries"},
			{ID: "seed-part-usbc", Name: "USB-C Charging Flex", Category: "Charging"},
			{ID: "seed-part-backglass", Name: "Back Glass Panel", Category: "Housing"},
		},
		Shops: []Entry{
			{ID: "seed-shop-express", Name: "FixIt Express", Category: "Mobile Repair"},
			{ID: "seed-shop-laptop", Name: "Laptop Care Centre", Category: "Laptop Repair"},
		},
	}
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if c.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	return &c, nil
}

// Match returns every entry whose name or category contains the normalized
// query, services first, then parts, then shops. Entries without a name are
// skipped.
func (c *Catalog) Match(query string) []models.Hit {
	if c == nil || query == "" {
		return nil
	}

	var hits []models.Hit
	hits = appendMatches(hits, c.Services, query, models.HitService, models.CategoryServices, "services")
	hits = appendMatches(hits, c.Parts, query, models.HitPart, models.CategorySpareParts, "spare-parts")
	hits = appendMatches(hits, c.Shops, query, models.HitShop, models.CategoryShops, "shops")
	return hits
}

func appendMatches(dst []models.Hit, entries []Entry, query string, typ models.HitType, cat models.Category, section string) []models.Hit {
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		if !textmatch.AnyContains(query, e.Name, e.Category) {
			continue
		}
		id := e.ID
		if id == "" {
			id = "seed-" + routes.Slug(e.Name)
		}
		url := e.URL
		if url == "" {
			url = routes.Search(section, e.Name)
		}
		dst = append(dst, models.Hit{
			ID:       id,
			Type:     typ,
			Category: cat,
			Name:     e.Name,
			URL:      url,
		})
	}
	return dst
}

// Matcher holds the active catalog and lets a reload swap it without
// blocking searches in flight.
type Matcher struct {
	current atomic.Pointer[Catalog]
}

func NewMatcher(c *Catalog) *Matcher {
	m := &Matcher{}
	m.Set(c)
	return m
}

func (m *Matcher) Set(c *Catalog) {
	if c == nil {
		c = &Catalog{}
	}
	m.current.Store(c)
}

func (m *Matcher) Catalog() *Catalog {
	return m.current.Load()
}

func (m *Matcher) Match(query string) []models.Hit {
	return m.current.Load().Match(query)
}
