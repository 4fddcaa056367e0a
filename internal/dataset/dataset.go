// Package dataset loads the raw listings CSV and runs the cleaning
// pipeline that turns messy scraped rows into typed records ready for
// training.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// requiredColumns is the fixed ingestion schema, in feature order plus
// the target. Column names are matched after normalization.
var requiredColumns = []string{
	"location",
	"area_sqft",
	"bhk",
	"bathrooms",
	"floor",
	"total_floors",
	"age_of_property",
	"parking",
	"lift",
	"actual_price",
}

// FeatureColumns returns the ordered feature column names used by the
// model (everything except the target).
func FeatureColumns() []string {
	out := make([]string, len(requiredColumns)-1)
	copy(out, requiredColumns[:len(requiredColumns)-1])
	return out
}

// TargetColumn returns the name of the prediction target.
func TargetColumn() string { return "actual_price" }

// Table is a raw tabular dataset addressed by normalized column name.
// It exists only between CSV load and preprocessing.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// Load reads a CSV file into a Table, normalizing column names and
// validating the schema once up front. Missing required columns fail
// fast rather than surfacing as per-cell parse errors later.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows; short rows read as missing cells

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("dataset: %s has no header row", path)
	}

	t := &Table{
		Columns: make([]string, len(records[0])),
		Rows:    records[1:],
		index:   make(map[string]int, len(records[0])),
	}
	for i, col := range records[0] {
		name := NormalizeColumn(col)
		t.Columns[i] = name
		t.index[name] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := t.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("dataset: %s missing required columns: %s", path, strings.Join(missing, ", "))
	}
	return t, nil
}

// NormalizeColumn lowercases a column name and converts spaces to
// underscores.
func NormalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Cell returns the raw value at row i, column name. Out-of-range cells
// on ragged rows read as empty (missing).
func (t *Table) Cell(i int, column string) string {
	j, ok := t.index[column]
	if !ok || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }
