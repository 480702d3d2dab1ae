package cart

import (
	"fmt"
	"strings"
)

// NoItems is the manifest of an empty cart.
const NoItems = "No items"

// FormatManifest renders lines as the plain-text order summary sent with an
// order: one "{name} (x{qty}) — {currency}{subtotal}" row per line in cart
// order, a blank line, then "Total: {currency}{total}".
func FormatManifest(lines []Line, currency string) string {
	if len(lines) == 0 {
		return NoItems
	}

	var b strings.Builder
	var total int64
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s (x%d) — %s%d", l.Name, l.Quantity, currency, l.Subtotal())
		total += l.Subtotal()
	}
	fmt.Fprintf(&b, "\n\nTotal: %s%d", currency, total)
	return b.String()
}
