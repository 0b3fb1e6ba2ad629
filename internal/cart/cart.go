package cart

import "github.com/google/uuid"

// AddItem merges into an existing line when the product and the exact option
// set match, otherwise appends a new line with quantity 1. Returns the id of
// the touched line. The first add pins the cart to the product's business;
// later adds from another business are refused.
func (c *Cart) AddItem(p Product, opts []SelectedOption) (string, error) {
	if c.BusinessSlug == "" {
		c.BusinessSlug = p.BusinessSlug
	} else if p.BusinessSlug != "" && p.BusinessSlug != c.BusinessSlug {
		return "", ErrWrongBusiness
	}

	key := selectionKey(p.ID, opts)
	for i := range c.Lines {
		if selectionKey(c.Lines[i].ProductID, c.Lines[i].Options) == key {
			c.Lines[i].Quantity++
			return c.Lines[i].ID, nil
		}
	}

	line := LineItem{
		ID:          uuid.NewString(),
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    1,
		UnitPrice:   p.UnitPrice,
		Options:     opts,
	}
	c.Lines = append(c.Lines, line)
	return line.ID, nil
}

// IncrementLine bumps quantity by one. Unknown line ids are a no-op.
func (c *Cart) IncrementLine(lineID string) {
	if i := c.findLine(lineID); i >= 0 {
		c.Lines[i].Quantity++
	}
}

// DecrementLine lowers quantity by one and removes the line when it would
// drop below one. A quantity of zero is never stored.
func (c *Cart) DecrementLine(lineID string) {
	i := c.findLine(lineID)
	if i < 0 {
		return
	}
	if c.Lines[i].Quantity <= 1 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return
	}
	c.Lines[i].Quantity--
}

func (c *Cart) RemoveLine(lineID string) {
	if i := c.findLine(lineID); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
}

// Clear empties the lines and resets the order note. Business slug and table
// id survive so the session stays usable.
func (c *Cart) Clear() {
	c.Lines = nil
	c.OrderNote = ""
}

// Snapshot returns a deep copy, used by checkout so an in-flight submission
// is unaffected by later edits.
func (c *Cart) Snapshot() Cart {
	cp := *c
	cp.Lines = make([]LineItem, len(c.Lines))
	copy(cp.Lines, c.Lines)
	for i := range cp.Lines {
		if len(c.Lines[i].Options) > 0 {
			cp.Lines[i].Options = make([]SelectedOption, len(c.Lines[i].Options))
			copy(cp.Lines[i].Options, c.Lines[i].Options)
		}
	}
	return cp
}
