package dataset

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/propsage/propsage/pkg/clean"
)

// Area bounds (open interval) and price-per-sqft band used by the
// preprocessing filters.
const (
	MinAreaSqft = 100.0
	MaxAreaSqft = 10000.0

	MinPricePerSqft = 2000.0
	MaxPricePerSqft = 50000.0
)

// Stats summarizes one preprocessing pass.
type Stats struct {
	OriginalRows   int            `json:"original_rows"`
	CleanedRows    int            `json:"cleaned_rows"`
	RowsRemoved    int            `json:"rows_removed"`
	Locations      []string       `json:"locations"`
	LocationCounts map[string]int `json:"location_counts"`
}

// workRow carries a partially cleaned row between pipeline steps.
// Fields with no safe default keep an ok flag until imputation.
type workRow struct {
	loc   string
	area  float64
	price float64

	bhk     int
	bhkOK   bool
	bath    float64
	bathOK  bool
	floor   int
	floorOK bool
	tfl     float64
	tflOK   bool
	age     float64
	ageOK   bool

	parking int
	lift    int
}

// Preprocess runs the full cleaning pipeline over a raw table. Step
// order matters: later steps assume earlier cleanup. Rows lacking a
// valid location, area or price are dropped (no safe default exists for
// those); count and amenity fields are imputed from the cleaned-so-far
// median or zero.
func Preprocess(t *Table, logger *slog.Logger) ([]Record, *Stats, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	stats := &Stats{OriginalRows: t.Len()}
	logger.Info("starting preprocessing", "rows", t.Len(), "columns", len(t.Columns))

	// Steps 2-4: location, area, price. Unrecoverable fields first.
	var rows []*workRow
	var droppedLoc, droppedArea, droppedPrice int
	for i := 0; i < t.Len(); i++ {
		loc, ok := clean.Location(t.Cell(i, "location"))
		if !ok {
			droppedLoc++
			continue
		}
		area, ok := clean.Number(t.Cell(i, "area_sqft"))
		if !ok || area <= MinAreaSqft || area >= MaxAreaSqft {
			droppedArea++
			continue
		}
		price, ok := clean.Price(t.Cell(i, "actual_price"))
		if !ok {
			droppedPrice++
			continue
		}

		w := &workRow{loc: loc, area: area, price: price}
		w.bhk, w.bhkOK = clean.BHK(t.Cell(i, "bhk"))
		w.bath, w.bathOK = clean.Number(t.Cell(i, "bathrooms"))
		if w.bathOK {
			w.bath = clampFloat(w.bath, 1, 6)
		}
		w.floor, w.floorOK = clean.Floor(t.Cell(i, "floor"))
		w.tfl, w.tflOK = clean.Number(t.Cell(i, "total_floors"))
		if w.tflOK {
			w.tfl = clampFloat(w.tfl, 1, 80)
		}
		w.age, w.ageOK = clean.Number(t.Cell(i, "age_of_property"))
		if w.ageOK {
			w.age = clampFloat(w.age, 0, 50)
		}
		w.parking, _ = clean.YesNo(t.Cell(i, "parking")) // missing -> 0
		w.lift, _ = clean.YesNo(t.Cell(i, "lift"))

		rows = append(rows, w)
	}
	logger.Info("filtered structurally invalid rows",
		"dropped_location", droppedLoc,
		"dropped_area", droppedArea,
		"dropped_price", droppedPrice,
		"remaining", len(rows))

	// Steps 5-9: median imputation over already-parsed values.
	medBHK := int(medianOf(rows, func(w *workRow) (float64, bool) { return float64(w.bhk), w.bhkOK }))
	medBath := medianOf(rows, func(w *workRow) (float64, bool) { return w.bath, w.bathOK })
	medFloor := int(medianOf(rows, func(w *workRow) (float64, bool) { return float64(w.floor), w.floorOK }))
	medTfl := medianOf(rows, func(w *workRow) (float64, bool) { return w.tfl, w.tflOK })
	medAge := medianOf(rows, func(w *workRow) (float64, bool) { return w.age, w.ageOK })

	for _, w := range rows {
		if !w.bhkOK {
			w.bhk = medBHK
		}
		if !w.bathOK {
			w.bath = medBath
		}
		if !w.floorOK {
			w.floor = medFloor
		}
		if !w.tflOK {
			w.tfl = medTfl
		}
		if !w.ageOK {
			w.age = medAge
		}
	}

	// Step 11: drop global price outliers outside the [p1, p99] band.
	before := len(rows)
	if len(rows) > 0 {
		prices := make([]float64, len(rows))
		for i, w := range rows {
			prices[i] = w.price
		}
		sort.Float64s(prices)
		p1 := stat.Quantile(0.01, stat.LinInterp, prices, nil)
		p99 := stat.Quantile(0.99, stat.LinInterp, prices, nil)

		kept := rows[:0]
		for _, w := range rows {
			if w.price >= p1 && w.price <= p99 {
				kept = append(kept, w)
			}
		}
		rows = kept
	}
	logger.Info("removed price outliers", "dropped", before-len(rows), "remaining", len(rows))

	// Step 12: price-per-sqft sanity band. The derived value is a
	// filter-only artifact and is not part of the cleaned record.
	before = len(rows)
	kept := rows[:0]
	for _, w := range rows {
		pps := w.price / w.area
		if pps >= MinPricePerSqft && pps <= MaxPricePerSqft {
			kept = append(kept, w)
		}
	}
	rows = kept
	logger.Info("filtered price per sqft", "dropped", before-len(rows), "remaining", len(rows))

	// Step 13: finalize records and summary stats.
	records := make([]Record, 0, len(rows))
	counts := make(map[string]int)
	for _, w := range rows {
		records = append(records, Record{
			Location:      w.loc,
			AreaSqft:      w.area,
			BHK:           w.bhk,
			Bathrooms:     int(w.bath),
			Floor:         w.floor,
			TotalFloors:   int(w.tfl),
			AgeOfProperty: w.age,
			Parking:       w.parking,
			Lift:          w.lift,
			ActualPrice:   w.price,
		})
		counts[w.loc]++
	}

	stats.CleanedRows = len(records)
	stats.RowsRemoved = stats.OriginalRows - stats.CleanedRows
	stats.LocationCounts = counts
	stats.Locations = make([]string, 0, len(counts))
	for loc := range counts {
		stats.Locations = append(stats.Locations, loc)
	}
	sort.Strings(stats.Locations)

	logger.Info("preprocessing complete",
		"cleaned_rows", stats.CleanedRows,
		"rows_removed", stats.RowsRemoved,
		"locations", len(stats.Locations))

	return records, stats, nil
}

// medianOf computes the median of the values for which ok is true,
// using linear interpolation. Returns 0 when no value parsed.
func medianOf(rows []*workRow, get func(*workRow) (float64, bool)) float64 {
	var vals []float64
	for _, w := range rows {
		if v, ok := get(w); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	return stat.Quantile(0.5, stat.LinInterp, vals, nil)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
