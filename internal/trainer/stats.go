package trainer

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/propsage/propsage/internal/bundle"
	"github.com/propsage/propsage/internal/dataset"
	"github.com/propsage/propsage/pkg/ml"
)

// computeLocationStats aggregates per-location price statistics over
// the full cleaned dataset. The snapshot is embedded in the bundle and
// served as market context alongside predictions.
func computeLocationStats(records []dataset.Record) map[string]bundle.LocationStats {
	byLoc := make(map[string][]dataset.Record)
	for _, r := range records {
		byLoc[r.Location] = append(byLoc[r.Location], r)
	}

	out := make(map[string]bundle.LocationStats, len(byLoc))
	for loc, rs := range byLoc {
		prices := make([]float64, len(rs))
		var sumPPS float64
		for i, r := range rs {
			prices[i] = r.ActualPrice
			sumPPS += r.ActualPrice / r.AreaSqft
		}
		sort.Float64s(prices)

		out[loc] = bundle.LocationStats{
			Count:           len(rs),
			MeanPrice:       ml.Round(stat.Mean(prices, nil), 0),
			MedianPrice:     ml.Round(stat.Quantile(0.5, stat.LinInterp, prices, nil), 0),
			MinPrice:        prices[0],
			MaxPrice:        prices[len(prices)-1],
			AvgPricePerSqft: ml.Round(sumPPS/float64(len(rs)), 0),
		}
	}
	return out
}
