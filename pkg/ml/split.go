package ml

import (
	"fmt"
	"math/rand"
)

// TrainTestSplit partitions X and y into train and test subsets. The
// shuffle is driven by seed so the partition is reproducible.
func TrainTestSplit(X [][]float64, y []float64, testSize float64, seed int64) (XTrain, XTest [][]float64, yTrain, yTest []float64, err error) {
	if len(X) != len(y) {
		return nil, nil, nil, nil, fmt.Errorf("split: X has %d rows, y has %d", len(X), len(y))
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("split: test size %v out of (0,1)", testSize)
	}
	n := len(X)
	idx := rand.New(rand.NewSource(seed)).Perm(n)

	nTest := int(float64(n) * testSize)
	if nTest < 1 {
		nTest = 1
	}

	for i, p := range idx {
		if i < nTest {
			XTest = append(XTest, X[p])
			yTest = append(yTest, y[p])
		} else {
			XTrain = append(XTrain, X[p])
			yTrain = append(yTrain, y[p])
		}
	}
	return XTrain, XTest, yTrain, yTest, nil
}
