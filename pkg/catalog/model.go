package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category groups the storefront shelves.
type Category string

const (
	CategoryBread  Category = "bread"
	CategoryCake   Category = "cake"
	CategoryCookie Category = "cookie"
	CategoryPasta  Category = "pasta"
)

// Categories lists the shelves in display order.
var Categories = []Category{CategoryBread, CategoryCake, CategoryCookie, CategoryPasta}

// ParseCategory accepts the category names used in URLs and the catalog file.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// Item is an immutable product descriptor loaded once at start-up.
type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Ingredients []string        `json:"ingredients"`
	Category    Category        `json:"category"`
}

// CategoryCount feeds the shelf filter on the order page.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}
