// Package cartview renders the cart and turns user intents into store calls.
//
// Views never patch their own copy of the cart. Every intent is forwarded to
// the store and the result is rendered from a fresh query, so any view built
// on this package shows the state the store holds after the mutation.
package cartview

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/cartd/internal/cart"
	"github.com/fyrsmithlabs/cartd/internal/catalog"
)

// ErrUnknownAction is returned by Dispatch for an unrecognised intent.
var ErrUnknownAction = errors.New("unknown cart action")

// PersistenceWarning is shown while the store cannot save the cart.
const PersistenceWarning = "Your cart could not be saved. Changes are kept until you close this session."

// Store is the part of cart.Store a view needs.
type Store interface {
	AddItem(ctx context.Context, itemID int) (cart.Change, error)
	RemoveItem(ctx context.Context, itemID int) (cart.Change, error)
	SetQuantityRaw(ctx context.Context, itemID int, raw string) (cart.Change, error)
	Clear(ctx context.Context) (cart.Change, error)

	Snapshot() cart.Snapshot
	Manifest() string
	Currency() string
	Catalog() catalog.Catalog
}

// Action names a user intent.
type Action string

const (
	ActionAdd         Action = "add"
	ActionRemove      Action = "remove"
	ActionSetQuantity Action = "set_quantity"
	ActionClear       Action = "clear"
)

// Intent is a user request against the cart. Quantity is the raw input for
// ActionSetQuantity and is coerced by the store.
type Intent struct {
	Action   Action
	ItemID   int
	Quantity string
}

// Document is the rendered cart handed to a presentation layer.
type Document struct {
	ItemCount int         `json:"item_count"`
	Total     int64       `json:"total"`
	Currency  string      `json:"currency"`
	Lines     []cart.Line `json:"lines"`
	Summary   string      `json:"summary"`
	Degraded  bool        `json:"degraded"`
	Warning   string      `json:"warning,omitempty"`
}

// View connects a presentation layer to a Store.
type View struct {
	store Store
}

// New creates a View over store.
func New(store Store) (*View, error) {
	if store == nil {
		return nil, errors.New("cart store is required")
	}
	return &View{store: store}, nil
}

// Store returns the underlying store.
func (v *View) Store() Store { return v.store }

// Dispatch forwards intent to the store and renders the cart afterwards.
// Bad references and quantities are absorbed by the store; the returned
// error is either ErrUnknownAction or a persistence failure, in which case
// the Document is still valid and marked degraded.
func (v *View) Dispatch(ctx context.Context, intent Intent) (Document, error) {
	var err error
	switch intent.Action {
	case ActionAdd:
		_, err = v.store.AddItem(ctx, intent.ItemID)
	case ActionRemove:
		_, err = v.store.RemoveItem(ctx, intent.ItemID)
	case ActionSetQuantity:
		_, err = v.store.SetQuantityRaw(ctx, intent.ItemID, intent.Quantity)
	case ActionClear:
		_, err = v.store.Clear(ctx)
	default:
		return v.Render(), fmt.Errorf("%w: %q", ErrUnknownAction, intent.Action)
	}
	return v.Render(), err
}

// Render queries the store and builds a Document.
func (v *View) Render() Document {
	snap := v.store.Snapshot()
	currency := v.store.Currency()

	doc := Document{
		ItemCount: snap.ItemCount,
		Total:     snap.Total,
		Currency:  currency,
		Lines:     snap.Lines,
		Summary:   Summary(snap, currency),
		Degraded:  snap.Degraded,
	}
	if doc.Lines == nil {
		doc.Lines = []cart.Line{}
	}
	if snap.Degraded {
		doc.Warning = PersistenceWarning
	}
	return doc
}

// Manifest returns the order text for submission.
func (v *View) Manifest() string {
	return v.store.Manifest()
}

// CatalogItems returns the products in display order.
func (v *View) CatalogItems() []catalog.Item {
	return v.store.Catalog().Items()
}
