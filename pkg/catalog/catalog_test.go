package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	items := c.List()
	require.Len(t, items, 24)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "Sourdough Bread", items[0].Name)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("8.50")))

	for _, count := range c.Counts() {
		assert.Equal(t, 6, count.Count, "category %s", count.Category)
	}
}

func TestGet(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	item, err := c.Get("c2")
	require.NoError(t, err)
	assert.Equal(t, "Red Velvet Cake", item.Name)
	assert.Equal(t, CategoryCake, item.Category)

	_, err = c.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetReturnsCopy(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	item, err := c.Get("1")
	require.NoError(t, err)
	item.Ingredients[0] = "changed"

	again, err := c.Get("1")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again.Ingredients[0])
}

func TestByCategoryAndSearch(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	pasta := c.ByCategory(CategoryPasta)
	require.Len(t, pasta, 6)
	for _, item := range pasta {
		assert.Equal(t, CategoryPasta, item.Category)
	}

	byName := c.Search("  BAGUETTE ")
	require.NotEmpty(t, byName)
	assert.Equal(t, "2", byName[0].ID)

	byIngredient := c.Search("caraway")
	require.Len(t, byIngredient, 1)
	assert.Equal(t, "Rye Bread", byIngredient[0].Name)

	assert.Len(t, c.Search(""), 24)
	assert.Empty(t, c.Search("no such pastry"))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Cookie ")
	require.NoError(t, err)
	assert.Equal(t, CategoryCookie, c)

	_, err = ParseCategory("croissant")
	assert.Error(t, err)
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: "items: []"},
		{name: "bad price", doc: "items:\n  - id: a\n    name: A\n    price: abc\n    category: bread\n"},
		{name: "bad category", doc: "items:\n  - id: a\n    name: A\n    price: \"1\"\n    category: pie\n"},
		{name: "duplicate id", doc: "items:\n  - id: a\n    price: \"1\"\n    category: bread\n  - id: a\n    price: \"2\"\n    category: cake\n"},
		{name: "missing id", doc: "items:\n  - name: A\n    price: \"1\"\n    category: bread\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
