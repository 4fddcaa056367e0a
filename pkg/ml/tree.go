package ml

import "sort"

// TreeNode is a node in a regression tree. Leaf nodes carry the mean
// target of the samples they cover; internal nodes route on
// Feature <= Threshold.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	Value     float64
	Leaf      bool
}

// Tree is a depth-limited regression tree fit by minimizing squared
// error. It is the weak learner inside GradientBoosting.
type Tree struct {
	Root            *TreeNode
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int

	// Importances accumulates the total squared-error reduction
	// contributed by each feature during fitting.
	Importances []float64
}

// Fit builds the tree on the rows of X selected by idx against targets y.
func (t *Tree) Fit(X [][]float64, y []float64, idx []int) {
	if len(idx) == 0 {
		t.Root = &TreeNode{Leaf: true}
		return
	}
	t.Importances = make([]float64, len(X[0]))
	t.Root = t.build(X, y, idx, 0)
}

// Predict routes a single feature vector to its leaf value.
func (t *Tree) Predict(row []float64) float64 {
	node := t.Root
	for node != nil && !node.Leaf {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	if node == nil {
		return 0
	}
	return node.Value
}

func (t *Tree) build(X [][]float64, y []float64, idx []int, depth int) *TreeNode {
	mean, sse := meanSSE(y, idx)

	if depth >= t.MaxDepth || len(idx) < t.MinSamplesSplit || sse == 0 {
		return &TreeNode{Leaf: true, Value: mean}
	}

	feature, threshold, gain, ok := t.bestSplit(X, y, idx, sse)
	if !ok {
		return &TreeNode{Leaf: true, Value: mean}
	}
	t.Importances[feature] += gain

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      t.build(X, y, left, depth+1),
		Right:     t.build(X, y, right, depth+1),
	}
}

// bestSplit scans every feature for the threshold that maximizes
// squared-error reduction, honoring MinSamplesLeaf on both sides.
func (t *Tree) bestSplit(X [][]float64, y []float64, idx []int, parentSSE float64) (feature int, threshold, gain float64, ok bool) {
	n := len(idx)
	order := make([]int, n)

	for f := 0; f < len(X[0]); f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		// Running sums from the left; the remainder is the right side.
		var totalSum, totalSq float64
		for _, i := range order {
			totalSum += y[i]
			totalSq += y[i] * y[i]
		}

		var leftSum, leftSq float64
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			// Cannot split between identical feature values.
			if X[order[pos]][f] == X[order[pos+1]][f] {
				continue
			}
			nLeft := pos + 1
			nRight := n - nLeft
			if nLeft < t.MinSamplesLeaf || nRight < t.MinSamplesLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sseLeft := leftSq - leftSum*leftSum/float64(nLeft)
			sseRight := rightSq - rightSum*rightSum/float64(nRight)

			g := parentSSE - sseLeft - sseRight
			if g > gain {
				gain = g
				feature = f
				threshold = (X[order[pos]][f] + X[order[pos+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, gain, ok
}

func meanSSE(y []float64, idx []int) (mean, sse float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	var sum, sq float64
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	n := float64(len(idx))
	mean = sum / n
	sse = sq - sum*sum/n
	if sse < 0 {
		sse = 0 // numeric noise on constant targets
	}
	return mean, sse
}
