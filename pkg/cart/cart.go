// Package cart keeps the shopping cart for each storefront session.
//
// Cart is a plain value type with the increment/decrement and absolute-set
// operations. Store owns every session's cart behind a single goroutine and
// persists each change.
package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"bakeshop/pkg/catalog"
)

// Line is one catalog item plus the selected quantity. Quantity is always at least 1.
type Line struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
}

// Subtotal is price times quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered list of lines; insertion order is display order.
// The zero value is an empty cart.
type Cart struct {
	lines []Line
}

// FromLines rebuilds a cart from stored lines, dropping lines with a
// non-positive quantity and folding duplicate ids into the first occurrence.
func FromLines(lines []Line) Cart {
	var c Cart
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := c.index(l.ID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// AddItem increments the line for item or appends a new line with quantity 1.
func (c *Cart) AddItem(item catalog.Item) {
	if i := c.index(item.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{
		ID:          item.ID,
		Name:        item.Name,
		Price:       item.Price,
		Image:       item.Image,
		Description: item.Description,
		Quantity:    1,
	})
}

// RemoveItem decrements the line, deleting it when it would reach zero.
// Unknown ids are ignored.
func (c *Cart) RemoveItem(id string) {
	i := c.index(id)
	if i < 0 {
		return
	}
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
		return
	}
	c.delete(i)
}

// UpdateQuantity sets the line's quantity to exactly quantity. A quantity of
// zero or less deletes the line. It never creates a line for an absent id.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	i := c.index(id)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.delete(i)
		return
	}
	c.lines[i].Quantity = quantity
}

// TotalPrice sums price times quantity over all lines.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemQuantity reports the quantity held for id, or 0.
func (c Cart) ItemQuantity(id string) int {
	if i := c.index(id); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the lines in display order.
func (c Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len is the number of distinct lines.
func (c Cart) Len() int { return len(c.lines) }

// Units is the number of pieces across all lines, as shown on the cart badge.
func (c Cart) Units() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Clone returns an independent copy.
func (c Cart) Clone() Cart {
	return Cart{lines: c.Lines()}
}

// MarshalJSON writes the persisted form: a JSON array of lines.
func (c Cart) MarshalJSON() ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// UnmarshalJSON reads the persisted form and re-applies the cart invariants.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*c = FromLines(lines)
	return nil
}

func (c Cart) index(id string) int {
	for i, l := range c.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) delete(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	if len(c.lines) == 0 {
		c.lines = nil
	}
}
