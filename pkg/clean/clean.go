// Package clean provides field-level cleaners for raw property listing
// values. Every cleaner is a pure, total function: malformed or
// out-of-range input yields ok=false (the missing marker) and never an
// error or panic. Callers decide whether a missing value drops the row
// or gets imputed.
package clean

import (
	"strconv"
	"strings"
)

// BHK bounds for a residential unit.
const (
	MinBHK = 1
	MaxBHK = 6
)

// Floor bounds. Ground floor is 0.
const (
	MinFloor = 0
	MaxFloor = 100
)

// Price parses a price value such as "₹24426717", "24,456,626 INR" or a
// plain number. Returns ok=false for unparseable or non-positive values.
func Price(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	// Strip currency symbols, separators and the INR currency code.
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '₹', ',', 'I', 'N', 'R', ' ', '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	price, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

// BHK parses a bedroom configuration such as "2BHK", "3 bhk" or "2".
// Values outside [1,6] are missing, not clamped.
func BHK(raw string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "BHK"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	bhk := int(f)
	if bhk < MinBHK || bhk > MaxBHK {
		return 0, false
	}
	return bhk, true
}

// Floor parses a floor number, treating "Ground" (any case) as 0.
// Values outside [0,100] are missing.
func Floor(raw string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	if s == "ground" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	floor := int(f)
	if floor < MinFloor || floor > MaxFloor {
		return 0, false
	}
	return floor, true
}

// YesNo maps affirmative/negative token spellings to 1/0. Anything
// outside the fixed token set is missing.
func YesNo(raw string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "1", "true":
		return 1, true
	case "no", "n", "0", "false":
		return 0, true
	default:
		return 0, false
	}
}

// Number coerces a raw value to a float, mirroring a permissive numeric
// cast: empty or unparseable input is missing.
func Number(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
