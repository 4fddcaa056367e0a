package ml

import (
	"fmt"
	"sort"
)

// LabelEncoder maps categorical string values to integer codes. Classes
// are sorted lexicographically at fit time, so codes are stable across
// runs for the same vocabulary.
type LabelEncoder struct {
	Classes []string
}

// Fit learns the class vocabulary from values.
func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]struct{}, len(values))
	e.Classes = e.Classes[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		e.Classes = append(e.Classes, v)
	}
	sort.Strings(e.Classes)
}

// Transform returns the integer code for value. Unseen values are an
// error, never silently encoded as an arbitrary class.
func (e *LabelEncoder) Transform(value string) (int, error) {
	i := sort.SearchStrings(e.Classes, value)
	if i < len(e.Classes) && e.Classes[i] == value {
		return i, nil
	}
	return 0, fmt.Errorf("encoder: unknown class %q", value)
}

// Contains reports whether value is part of the fitted vocabulary.
func (e *LabelEncoder) Contains(value string) bool {
	_, err := e.Transform(value)
	return err == nil
}
