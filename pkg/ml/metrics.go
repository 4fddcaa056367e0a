package ml

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics holds regression evaluation metrics for one data split.
type Metrics struct {
	R2       float64 `json:"r2_score"`
	RMSE     float64 `json:"rmse"`
	MAE      float64 `json:"mae"`
	MAPE     float64 `json:"mape"`
	MedianAE float64 `json:"median_ae"`
}

// Evaluate computes regression metrics over true/predicted pairs.
// R2 is rounded to 4 decimals, the error metrics to 2; MAPE is a
// percentage.
func Evaluate(yTrue, yPred []float64) (Metrics, error) {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return Metrics{}, fmt.Errorf("metrics: mismatched lengths %d and %d", len(yTrue), len(yPred))
	}

	mean := stat.Mean(yTrue, nil)
	var ssRes, ssTot, sumAbs, sumPct float64
	absErrs := make([]float64, len(yTrue))
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ssRes += d * d
		t := yTrue[i] - mean
		ssTot += t * t
		abs := math.Abs(d)
		sumAbs += abs
		absErrs[i] = abs
		if yTrue[i] != 0 {
			sumPct += abs / math.Abs(yTrue[i])
		}
	}

	n := float64(len(yTrue))
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	sort.Float64s(absErrs)
	medianAE := stat.Quantile(0.5, stat.LinInterp, absErrs, nil)

	return Metrics{
		R2:       Round(r2, 4),
		RMSE:     Round(math.Sqrt(ssRes/n), 2),
		MAE:      Round(sumAbs/n, 2),
		MAPE:     Round(sumPct/n*100, 2),
		MedianAE: Round(medianAE, 2),
	}, nil
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
