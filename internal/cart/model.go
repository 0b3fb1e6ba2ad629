package cart

import (
	"errors"
	"sort"
	"strings"
)

var ErrWrongBusiness = errors.New("cart belongs to a different business")

// Product is what the caller knows about the thing being added. The cart
// never looks products up itself; prices arrive resolved.
type Product struct {
	ID           string  `json:"productId"`
	Name         string  `json:"productName"`
	UnitPrice    float64 `json:"unitPrice"`
	BusinessSlug string  `json:"businessSlug"`
}

// SelectedOption is one chosen option within an option group (size, extras).
// Modifier is the per-unit price delta for that option.
type SelectedOption struct {
	GroupID  string  `json:"groupId"`
	OptionID string  `json:"optionId"`
	Modifier float64 `json:"modifier"`
}

type LineItem struct {
	ID          string           `json:"lineId"`
	ProductID   string           `json:"productId"`
	ProductName string           `json:"productName"`
	Quantity    int              `json:"quantity"`
	UnitPrice   float64          `json:"unitPrice"`
	Options     []SelectedOption `json:"options,omitempty"`
}

// LineTotal is (unit price + option modifiers) * quantity.
func (li LineItem) LineTotal() float64 {
	unit := li.UnitPrice
	for _, o := range li.Options {
		unit += o.Modifier
	}
	return unit * float64(li.Quantity)
}

// selectionKey identifies a line by product plus the exact option set, so
// adding the same product with the same choices merges into one line.
func selectionKey(productID string, opts []SelectedOption) string {
	parts := make([]string, 0, len(opts)+1)
	for _, o := range opts {
		parts = append(parts, o.GroupID+"="+o.OptionID)
	}
	sort.Strings(parts)
	return productID + "|" + strings.Join(parts, ",")
}

// Cart is the order-in-progress for exactly one business. Line order is
// insertion order and doubles as display order.
type Cart struct {
	BusinessSlug string     `json:"businessSlug"`
	TableID      string     `json:"tableId,omitempty"`
	OrderNote    string     `json:"orderNote,omitempty"`
	Lines        []LineItem `json:"lines"`
}

func (c *Cart) Subtotal() float64 {
	total := 0.0
	for _, li := range c.Lines {
		total += li.LineTotal()
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) findLine(lineID string) int {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}
