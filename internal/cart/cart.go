// Package cart owns the shopping cart: an ordered set of line items mirrored
// to a storage medium after every mutation.
//
// Store is the single source of truth. Invalid input never produces an error:
// unknown item ids are ignored and quantities are clamped. The only error a
// mutation returns wraps ErrPersistence, and even then the in-memory cart has
// been updated and stays usable.
package cart

import (
	"context"
	"errors"
)

// ErrPersistence marks a failed write to the storage medium.
var ErrPersistence = errors.New("cart: persistence failed")

// DefaultKey is the storage key the storefront has always used.
const DefaultKey = "vanthu_cart"

// Line is one distinct catalog item in the cart. Name and UnitPrice are copied
// from the catalog when the line is created and never refreshed.
type Line struct {
	ItemID    int    `json:"itemId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// Subtotal returns UnitPrice * Quantity.
func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Op names a cart mutation.
type Op string

const (
	OpAdd         Op = "add"
	OpRemove      Op = "remove"
	OpSetQuantity Op = "set_quantity"
	OpClear       Op = "clear"
)

// Snapshot is a consistent view of the cart at one instant.
type Snapshot struct {
	Lines     []Line `json:"lines"`
	ItemCount int    `json:"item_count"`
	Total     int64  `json:"total"`
	Degraded  bool   `json:"degraded"`
}

// Empty reports whether the snapshot has no lines.
func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

// Change describes the outcome of one mutation call.
type Change struct {
	Op     Op
	ItemID int

	// Changed reports whether the in-memory cart differs from before the call.
	Changed bool

	// Written reports whether a persistence write was attempted. No-op
	// removes, sets and unknown adds skip the write; clear always writes.
	Written bool

	// Snapshot is the cart as left by this mutation.
	Snapshot Snapshot
}

// Observer is notified after every mutation that wrote to storage.
// Observers run synchronously on the mutating goroutine, after the store's
// lock is released, so they may query the store.
type Observer interface {
	CartChanged(ctx context.Context, change Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, change Change)

// CartChanged implements Observer.
func (f ObserverFunc) CartChanged(ctx context.Context, change Change) {
	f(ctx, change)
}
