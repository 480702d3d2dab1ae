// Package catalog provides the read-only product table carts are built from.
package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTOML indicates a catalog file could not be parsed.
	ErrInvalidTOML = errors.New("invalid catalog TOML")

	// ErrInvalidItem indicates a catalog entry violates the item constraints.
	ErrInvalidItem = errors.New("invalid catalog item")
)

// Item is one product offered in the storefront. UnitPrice is in whole
// currency units.
type Item struct {
	ID          int    `json:"id" toml:"id"`
	Name        string `json:"name" toml:"name"`
	Description string `json:"description,omitempty" toml:"description"`
	UnitPrice   int64  `json:"unit_price" toml:"unit_price"`
}

// Catalog looks up products by id. Implementations must not change after
// construction.
type Catalog interface {
	// Find returns the item with id and whether it exists.
	Find(id int) (Item, bool)

	// Items returns every item in display order.
	Items() []Item
}

// Table is an immutable, ordered Catalog.
type Table struct {
	items []Item
	index map[int]int
}

// NewTable builds a Table from items, rejecting non-positive ids, duplicate
// ids, empty names and negative prices.
func NewTable(items []Item) (*Table, error) {
	t := &Table{
		items: make([]Item, 0, len(items)),
		index: make(map[int]int, len(items)),
	}
	for _, item := range items {
		switch {
		case item.ID <= 0:
			return nil, fmt.Errorf("%w: id must be positive, got %d", ErrInvalidItem, item.ID)
		case item.Name == "":
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidItem, item.ID)
		case item.UnitPrice < 0:
			return nil, fmt.Errorf("%w: item %d has negative price %d", ErrInvalidItem, item.ID, item.UnitPrice)
		}
		if _, dup := t.index[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidItem, item.ID)
		}
		t.index[item.ID] = len(t.items)
		t.items = append(t.items, item)
	}
	return t, nil
}

// Find implements Catalog.
func (t *Table) Find(id int) (Item, bool) {
	i, ok := t.index[id]
	if !ok {
		return Item{}, false
	}
	return t.items[i], true
}

// Items implements Catalog. The returned slice is a copy.
func (t *Table) Items() []Item {
	out := make([]Item, len(t.items))
	copy(out, t.items)
	return out
}

// Len returns the number of items.
func (t *Table) Len() int {
	return len(t.items)
}

// Default returns the storefront's built-in product table.
func Default() *Table {
	t, err := NewTable([]Item{
		{ID: 1, Name: "Herbal Tonic", Description: "Immunity booster tonic - 200ml", UnitPrice: 150},
		{ID: 2, Name: "Joint Care Capsules", Description: "Relieves joint pain - 60 caps", UnitPrice: 499},
		{ID: 3, Name: "Cough Syrup", Description: "Soothing syrup - 100ml", UnitPrice: 120},
		{ID: 4, Name: "Vitamin D Tablets", Description: "60 tablets", UnitPrice: 299},
		{ID: 5, Name: "Antiseptic Gel", Description: "Hand sanitizer - 250ml", UnitPrice: 80},
		{ID: 6, Name: "First Aid Kit", Description: "Essential home kit", UnitPrice: 799},
	})
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in table invalid: %v", err))
	}
	return t
}
