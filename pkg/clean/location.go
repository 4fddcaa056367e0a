package clean

import "strings"

// Canonical Navi Mumbai locations covered by the price model. The list
// is hand-maintained; Location rejects anything not in the alias table
// rather than guessing.
var canonicalLocations = []string{
	"Airoli",
	"Belapur",
	"CBD Belapur",
	"Ghansoli",
	"Juinagar",
	"Kharghar",
	"Kopar Khairane",
	"Nerul",
	"Panvel",
	"Rabale",
	"Sanpada",
	"Taloja",
	"Ulwe",
	"Vashi",
}

// locationAliases maps lowercase spellings to canonical names. Each
// alias resolves to exactly one canonical location.
var locationAliases = map[string]string{
	"airoli":         "Airoli",
	"belapur":        "Belapur",
	"cbd belapur":    "CBD Belapur",
	"ghansoli":       "Ghansoli",
	"juinagar":       "Juinagar",
	"kharghar":       "Kharghar",
	"kopar khairane": "Kopar Khairane",
	"nerul":          "Nerul",
	"panvel":         "Panvel",
	"rabale":         "Rabale",
	"sanpada":        "Sanpada",
	"taloja":         "Taloja",
	"ulwe":           "Ulwe",
	"vashi":          "Vashi",
}

// Location normalizes a raw location to its canonical name. Unknown or
// empty spellings are missing; there is no fuzzy matching.
func Location(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	canonical, ok := locationAliases[s]
	return canonical, ok
}

// Locations returns the canonical location names in registry order.
// The returned slice is a copy.
func Locations() []string {
	out := make([]string, len(canonicalLocations))
	copy(out, canonicalLocations)
	return out
}
