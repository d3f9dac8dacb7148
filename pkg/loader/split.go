package loader

import (
	"fmt"
	"math"
	"math/rand"
)

// SplitIndex returns the first test row when the last testRatio of n rows is
// held out. The test size is rounded up.
func SplitIndex(n int, testRatio float64) (int, error) {
	if testRatio <= 0 || testRatio >= 1 {
		return 0, fmt.Errorf("loader: test ratio %v not in (0, 1)", testRatio)
	}
	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest == 0 || nTest >= n {
		return 0, fmt.Errorf("loader: cannot hold out %d of %d rows", nTest, n)
	}
	return n - nTest, nil
}

// TimeOrderedSplit splits X, Y into train and test sets without shuffling:
// the last testRatio of the rows becomes the test set.
func TimeOrderedSplit(X [][]float64, Y []float64, testRatio float64) (XTrain, XTest [][]float64, YTrain, YTest []float64, err error) {
	if len(X) != len(Y) {
		return nil, nil, nil, nil, fmt.Errorf("loader: %d rows but %d targets", len(X), len(Y))
	}
	cut, err := SplitIndex(len(X), testRatio)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return X[:cut], X[cut:], Y[:cut], Y[cut:], nil
}

// ShuffleIndices returns a permutation of [0, n) drawn from rng.
func ShuffleIndices(n int, rng *rand.Rand) []int {
	if rng == nil {
		return rand.Perm(n)
	}
	return rng.Perm(n)
}
