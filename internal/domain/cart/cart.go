// Package cart implements the customer's in-memory selection of menu items.
//
// A Cart belongs to a single session and is not safe for concurrent use.
// None of its operations fail: unknown ids and non-positive quantities are
// normalised to no-ops or removals.
package cart

import "github.com/xenking/bistro/internal/domain/catalog"

// Line is a selected menu item with its quantity. Quantity is always >= 1.
type Line struct {
	Item     catalog.MenuItem
	Quantity int
}

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() int64 {
	return l.Item.UnitPrice * int64(l.Quantity)
}

// Cart is an ordered collection of lines keyed by item id.
type Cart struct {
	lines []Line
	index map[string]int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{index: make(map[string]int)}
}

// Add increments the line for item by one, appending it if missing.
func (c *Cart) Add(item catalog.MenuItem) {
	c.AddQuantity(item, 1)
}

// AddQuantity increments the line for item by qty. Non-positive qty is ignored.
func (c *Cart) AddQuantity(item catalog.MenuItem, qty int) {
	if qty <= 0 {
		return
	}
	c.init()
	if i, ok := c.index[item.ID]; ok {
		c.lines[i].Quantity += qty
		return
	}
	c.index[item.ID] = len(c.lines)
	c.lines = append(c.lines, Line{Item: item, Quantity: qty})
}

// SetQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line. Unknown ids are ignored.
func (c *Cart) SetQuantity(itemID string, qty int) {
	if qty <= 0 {
		c.Remove(itemID)
		return
	}
	c.init()
	if i, ok := c.index[itemID]; ok {
		c.lines[i].Quantity = qty
	}
}

// Remove deletes the line for itemID if present.
func (c *Cart) Remove(itemID string) {
	c.init()
	i, ok := c.index[itemID]
	if !ok {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, itemID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].Item.ID] = j
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
}

// Total returns the sum of all line subtotals.
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// Quantity returns the quantity selected for itemID, or 0.
func (c *Cart) Quantity(itemID string) int {
	c.init()
	if i, ok := c.index[itemID]; ok {
		return c.lines[i].Quantity
	}
	return 0
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// init makes the zero Cart usable.
func (c *Cart) init() {
	if c.index == nil {
		c.index = make(map[string]int)
	}
}
