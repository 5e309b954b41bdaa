package cart

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakeshop/pkg/catalog"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func item(id, price string) catalog.Item {
	return catalog.Item{
		ID:          id,
		Name:        "Item " + id,
		Price:       decimal.RequireFromString(price),
		Image:       "/images/" + id + ".png",
		Description: "test item " + id,
		Category:    catalog.CategoryBread,
	}
}

func TestAddItem(t *testing.T) {
	var c Cart
	sourdough := item("1", "8.50")
	baguette := item("2", "4.25")

	c.AddItem(sourdough)
	c.AddItem(baguette)
	c.AddItem(sourdough)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].ID, "insertion order is display order")
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "2", lines[1].ID)
	assert.Equal(t, 1, lines[1].Quantity)
	assert.Equal(t, "Item 1", lines[0].Name)
	assert.Equal(t, "/images/1.png", lines[0].Image)
	assert.Equal(t, 3, c.Units())
}

func TestRemoveItem(t *testing.T) {
	var c Cart
	c.AddItem(item("1", "8.50"))
	c.AddItem(item("1", "8.50"))

	c.RemoveItem("1")
	assert.Equal(t, 1, c.ItemQuantity("1"))

	c.RemoveItem("1")
	assert.Equal(t, 0, c.ItemQuantity("1"))
	assert.True(t, c.IsEmpty())

	c.RemoveItem("missing")
	assert.True(t, c.IsEmpty())
}

func TestUpdateQuantity(t *testing.T) {
	var c Cart
	c.AddItem(item("1", "8.50"))
	c.AddItem(item("2", "4.25"))

	c.UpdateQuantity("1", 7)
	assert.Equal(t, 7, c.ItemQuantity("1"))

	c.UpdateQuantity("1", 2)
	assert.Equal(t, 2, c.ItemQuantity("1"), "absolute set, not a delta")

	c.UpdateQuantity("absent", 3)
	assert.Equal(t, 0, c.ItemQuantity("absent"), "setter never creates a line")
	assert.Equal(t, 2, c.Len())

	c.UpdateQuantity("2", -4)
	assert.Equal(t, 0, c.ItemQuantity("2"))
	assert.Equal(t, 1, c.Len())
}

func TestUpdateQuantityZeroMatchesRepeatedRemove(t *testing.T) {
	build := func() Cart {
		var c Cart
		for i := 0; i < 4; i++ {
			c.AddItem(item("1", "3.50"))
		}
		c.AddItem(item("2", "4.25"))
		return c
	}

	viaSet := build()
	viaSet.UpdateQuantity("1", 0)

	viaRemove := build()
	for viaRemove.ItemQuantity("1") > 0 {
		viaRemove.RemoveItem("1")
	}

	if diff := cmp.Diff(viaRemove.Lines(), viaSet.Lines(), decimalEqual); diff != "" {
		t.Errorf("carts differ (-remove +set):\n%s", diff)
	}
}

func TestTotalPrice(t *testing.T) {
	var c Cart
	assert.True(t, c.TotalPrice().IsZero())

	c.AddItem(item("1", "8.50"))
	c.AddItem(item("1", "8.50"))
	c.AddItem(item("k1", "3.50"))
	assert.Equal(t, "20.50", c.TotalPrice().StringFixed(2))
}

func TestClear(t *testing.T) {
	var c Cart
	c.AddItem(item("1", "8.50"))
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.TotalPrice().IsZero())
}

func TestLinesReturnsCopy(t *testing.T) {
	var c Cart
	c.AddItem(item("1", "8.50"))
	lines := c.Lines()
	lines[0].Quantity = 99
	assert.Equal(t, 1, c.ItemQuantity("1"))

	clone := c.Clone()
	clone.AddItem(item("1", "8.50"))
	assert.Equal(t, 1, c.ItemQuantity("1"))
	assert.Equal(t, 2, clone.ItemQuantity("1"))
}

// randomOps drives a cart through a seeded sequence of adds and removes.
func randomOps(t *testing.T, seed int64, check func(step int, c Cart)) {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	pool := []catalog.Item{item("1", "8.50"), item("2", "4.25"), item("c1", "28.99"), item("k3", "3.00")}
	var c Cart
	for step := 0; step < 500; step++ {
		it := pool[r.Intn(len(pool))]
		if r.Intn(3) == 0 {
			c.RemoveItem(it.ID)
		} else {
			c.AddItem(it)
		}
		check(step, c)
	}
}

func TestNoLineEverAtZero(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		randomOps(t, seed, func(step int, c Cart) {
			for _, l := range c.Lines() {
				if l.Quantity <= 0 {
					t.Fatalf("seed %d step %d: line %s has quantity %d", seed, step, l.ID, l.Quantity)
				}
			}
		})
	}
}

func TestAddThenRemoveRestoresCart(t *testing.T) {
	extra := []catalog.Item{item("1", "8.50"), item("p6", "15.50")}
	for seed := int64(1); seed <= 10; seed++ {
		randomOps(t, seed, func(step int, c Cart) {
			for _, it := range extra {
				before := c.Lines()
				trial := c.Clone()
				trial.AddItem(it)
				trial.RemoveItem(it.ID)
				if diff := cmp.Diff(before, trial.Lines(), decimalEqual); diff != "" {
					t.Fatalf("seed %d step %d: add/remove of %s changed cart:\n%s", seed, step, it.ID, diff)
				}
			}
		})
	}
}

func TestTotalMatchesIndependentSum(t *testing.T) {
	randomOps(t, 42, func(step int, c Cart) {
		lines := c.Lines()
		// Sum in reverse so the check does not depend on storage order.
		want := decimal.Zero
		for i := len(lines) - 1; i >= 0; i-- {
			want = want.Add(lines[i].Price.Mul(decimal.NewFromInt(int64(lines[i].Quantity))))
		}
		if !c.TotalPrice().Equal(want) {
			t.Fatalf("step %d: total %s, want %s", step, c.TotalPrice(), want)
		}
	})
}

func TestJSONRoundTripKeepsInvariants(t *testing.T) {
	var c Cart
	c.AddItem(item("1", "8.50"))
	c.AddItem(item("2", "4.25"))
	c.AddItem(item("2", "4.25"))

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var back Cart
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(c.Lines(), back.Lines(), decimalEqual); diff != "" {
		t.Errorf("round trip changed cart:\n%s", diff)
	}

	empty, err := json.Marshal(Cart{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(empty))

	raw := `[{"id":"1","name":"A","price":"2.00","quantity":0},{"id":"2","name":"B","price":1.5,"quantity":2},{"id":"2","name":"B","price":1.5,"quantity":1}]`
	var cleaned Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &cleaned))
	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, 3, cleaned.ItemQuantity("2"))
}
