package dataset

import "math/rand"

// TrainTestSplit splits X, y into train and test sets by ratio using a
// seeded shuffle.
func TrainTestSplit(X [][]float64, y []int, testRatio float64, seed int64) (XTrain [][]float64, yTrain []int, XTest [][]float64, yTest []int) {
	rnd := rand.New(rand.NewSource(seed))
	n := len(X)
	indices := rnd.Perm(n)
	nTest := int(float64(n) * testRatio)
	for i, idx := range indices {
		if i < nTest {
			XTest = append(XTest, X[idx])
			yTest = append(yTest, y[idx])
		} else {
			XTrain = append(XTrain, X[idx])
			yTrain = append(yTrain, y[idx])
		}
	}
	return
}

// MaskLabels returns a copy of y where a random fraction of the labels
// is replaced with the Unlabeled sentinel. Used to build semi-supervised
// benchmarks from fully labeled data.
func MaskLabels(y []int, fraction float64, seed int64) []int {
	rnd := rand.New(rand.NewSource(seed))
	out := append([]int(nil), y...)
	n := int(float64(len(y)) * fraction)
	for i, idx := range rnd.Perm(len(y)) {
		if i >= n {
			break
		}
		out[idx] = Unlabeled
	}
	return out
}
