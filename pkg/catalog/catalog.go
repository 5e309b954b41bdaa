package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// itemRecord mirrors the YAML layout; prices are strings so they parse exactly.
type itemRecord struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Price       string   `yaml:"price"`
	Image       string   `yaml:"image"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
	Ingredients []string `yaml:"ingredients"`
}

type document struct {
	Items []itemRecord `yaml:"items"`
}

// Catalog is read-only after Load, so it is safe to share between goroutines.
type Catalog struct {
	items []Item
	byID  map[string]int
}

// Default loads the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(defaultCatalog)
}

// Load parses a YAML catalog document and rejects duplicate ids, bad prices and unknown categories.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Items) == 0 {
		return nil, errors.New("catalog has no items")
	}

	c := &Catalog{
		items: make([]Item, 0, len(doc.Items)),
		byID:  make(map[string]int, len(doc.Items)),
	}
	for _, rec := range doc.Items {
		if strings.TrimSpace(rec.ID) == "" {
			return nil, fmt.Errorf("catalog item %q has no id", rec.Name)
		}
		if _, dup := c.byID[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", rec.ID)
		}
		price, err := decimal.NewFromString(rec.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog item %s: invalid price %q: %w", rec.ID, rec.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("catalog item %s: negative price", rec.ID)
		}
		category, err := ParseCategory(rec.Category)
		if err != nil {
			return nil, fmt.Errorf("catalog item %s: %w", rec.ID, err)
		}
		c.byID[rec.ID] = len(c.items)
		c.items = append(c.items, Item{
			ID:          rec.ID,
			Name:        rec.Name,
			Price:       price,
			Image:       rec.Image,
			Description: rec.Description,
			Ingredients: append([]string(nil), rec.Ingredients...),
			Category:    category,
		})
	}
	return c, nil
}

// List returns every item in catalog order.
func (c *Catalog) List() []Item {
	return cloneItems(c.items)
}

// Get looks an item up by id.
func (c *Catalog) Get(id string) (Item, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return cloneItem(c.items[idx]), nil
}

// ByCategory filters the shelf for one category.
func (c *Catalog) ByCategory(category Category) []Item {
	var out []Item
	for _, item := range c.items {
		if item.Category == category {
			out = append(out, cloneItem(item))
		}
	}
	return out
}

// Search matches the query against names, descriptions and ingredients, ignoring case.
// An empty query matches everything.
func (c *Catalog) Search(query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.List()
	}
	var out []Item
	for _, item := range c.items {
		if matches(item, q) {
			out = append(out, cloneItem(item))
		}
	}
	return out
}

// Counts reports how many items each shelf holds.
func (c *Catalog) Counts() []CategoryCount {
	counts := make([]CategoryCount, 0, len(Categories))
	for _, category := range Categories {
		n := 0
		for _, item := range c.items {
			if item.Category == category {
				n++
			}
		}
		counts = append(counts, CategoryCount{Category: category, Count: n})
	}
	return counts
}

func matches(item Item, q string) bool {
	if strings.Contains(strings.ToLower(item.Name), q) || strings.Contains(strings.ToLower(item.Description), q) {
		return true
	}
	for _, ingredient := range item.Ingredients {
		if strings.Contains(strings.ToLower(ingredient), q) {
			return true
		}
	}
	return false
}

func cloneItem(item Item) Item {
	item.Ingredients = append([]string(nil), item.Ingredients...)
	return item
}

func cloneItems(src []Item) []Item {
	out := make([]Item, len(src))
	for i, item := range src {
		out[i] = cloneItem(item)
	}
	return out
}
