package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatManifest(t *testing.T) {
	assert.Equal(t, NoItems, FormatManifest(nil, "₹"))
	assert.Equal(t, NoItems, FormatManifest([]Line{}, "₹"))

	got := FormatManifest([]Line{
		{ItemID: 2, Name: "Joint Care Capsules", UnitPrice: 499, Quantity: 2},
		{ItemID: 1, Name: "Herbal Tonic", UnitPrice: 150, Quantity: 1},
	}, "₹")

	assert.Equal(t,
		"Joint Care Capsules (x2) — ₹998\n"+
			"Herbal Tonic (x1) — ₹150\n"+
			"\n"+
			"Total: ₹1148",
		got)
}

func TestFormatManifest_Currency(t *testing.T) {
	got := FormatManifest([]Line{{ItemID: 3, Name: "Cough Syrup", UnitPrice: 120, Quantity: 3}}, "$")
	assert.Equal(t, "Cough Syrup (x3) — $360\n\nTotal: $360", got)
}

func TestSnapshotEmpty(t *testing.T) {
	assert.True(t, Snapshot{}.Empty())
	assert.False(t, Snapshot{Lines: []Line{{ItemID: 1, Quantity: 1}}}.Empty())
}
