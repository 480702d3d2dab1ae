package cartview

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/cartd/internal/cart"
	"github.com/fyrsmithlabs/cartd/internal/catalog"
)

// Empty-state texts.
const (
	EmptySummary = "Cart is empty"
	EmptyList    = "Your cart is empty"
)

// Summary renders the compact cart summary shown beside the order form:
//
//	2 item(s) • Total: ₹1148
//	Joint Care Capsules x 2 — ₹998
//	Herbal Tonic x 1 — ₹150
//
// The headline counts distinct lines, not units.
func Summary(snap cart.Snapshot, currency string) string {
	if snap.Empty() {
		return EmptySummary
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d item(s) • Total: %s%d", len(snap.Lines), currency, snap.Total)
	for _, l := range snap.Lines {
		fmt.Fprintf(&b, "\n%s x %d — %s%d", l.Name, l.Quantity, currency, l.Subtotal())
	}
	return b.String()
}

// List renders the editable cart list: one row per line with its unit
// price and quantity, then the grand total.
func List(snap cart.Snapshot, currency string) string {
	if snap.Empty() {
		return EmptyList
	}

	var b strings.Builder
	for _, l := range snap.Lines {
		fmt.Fprintf(&b, "%s\n  %s%d x %d\n", l.Name, currency, l.UnitPrice, l.Quantity)
	}
	fmt.Fprintf(&b, "Total: %s%d", currency, snap.Total)
	return b.String()
}

// Catalog renders the product table with prices.
func Catalog(items []catalog.Item, currency string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s — %s%d", item.ID, item.Name, currency, item.UnitPrice)
		if item.Description != "" {
			fmt.Fprintf(&b, " (%s)", item.Description)
		}
	}
	return b.String()
}
