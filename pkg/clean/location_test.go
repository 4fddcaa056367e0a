package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"canonical", "Kharghar", "Kharghar", true},
		{"lowercase", "kharghar", "Kharghar", true},
		{"uppercase", "VASHI", "Vashi", true},
		{"surrounding whitespace", "  Nerul  ", "Nerul", true},
		{"multi word", "kopar khairane", "Kopar Khairane", true},
		{"outside region", "Mumbai", "", false},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"typo not guessed", "Kargar", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Location(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Every alias must resolve to its canonical name regardless of case, and
// every canonical name must resolve to itself.
func TestLocationAliasRoundTrip(t *testing.T) {
	for alias, canonical := range locationAliases {
		got, ok := Location(alias)
		require.True(t, ok, "alias %q", alias)
		assert.Equal(t, canonical, got)
	}
	for _, canonical := range Locations() {
		got, ok := Location(canonical)
		require.True(t, ok, "canonical %q", canonical)
		assert.Equal(t, canonical, got)
	}
}

// No alias may map to two canonical names, and every canonical name must
// be reachable from at least one alias.
func TestLocationRegistryConsistency(t *testing.T) {
	reachable := make(map[string]bool)
	for _, canonical := range locationAliases {
		reachable[canonical] = true
	}
	for _, canonical := range Locations() {
		assert.True(t, reachable[canonical], "no alias resolves to %q", canonical)
	}
	assert.Len(t, reachable, len(Locations()))
}

func TestLocationsReturnsCopy(t *testing.T) {
	first := Locations()
	first[0] = "tampered"
	assert.NotEqual(t, "tampered", Locations()[0])
}
