package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs draws n points per class around well separated centers.
func blobs(centers [][]float64, n int, noise float64, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	var X [][]float64
	var y []int
	for class, center := range centers {
		for i := 0; i < n; i++ {
			row := make([]float64, len(center))
			for j, c := range center {
				row[j] = c + rng.NormFloat64()*noise
			}
			X = append(X, row)
			y = append(y, class)
		}
	}
	return X, y
}

func assertProbaRows(t *testing.T, probas [][]float64, nClasses int) {
	t.Helper()
	for _, row := range probas {
		require.Len(t, row, nClasses)
		sum := 0.0
		for _, p := range row {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestDecisionTreeSeparable(t *testing.T) {
	X, y := blobs([][]float64{{0, 0}, {5, 5}, {10, 0}}, 30, 0.3, 1)

	tree := NewDecisionTree(WithMaxDepth(6))
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, []int{0, 1, 2}, tree.Classes())
	assert.Greater(t, Score(tree, X, y), 0.95)
	assertProbaRows(t, tree.PredictProba(X), 3)
}

func TestDecisionTreeClassesSortedWithGaps(t *testing.T) {
	X := [][]float64{{0}, {1}, {10}, {11}}
	y := []int{7, 7, 3, 3}

	tree := NewDecisionTree()
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, []int{3, 7}, tree.Classes())
	assert.Equal(t, []int{7, 3}, tree.Predict([][]float64{{0.5}, {10.5}}))
}

func TestKNNRecallsTrainingPoints(t *testing.T) {
	X, y := blobs([][]float64{{0, 0}, {8, 8}}, 20, 0.5, 2)

	knn := NewKNN(3)
	require.NoError(t, knn.Fit(X, y))
	assert.Greater(t, Score(knn, X, y), 0.95)
	assertProbaRows(t, knn.PredictProba(X), 2)
}

func TestGaussianNBSeparable(t *testing.T) {
	X, y := blobs([][]float64{{-3, -3}, {3, 3}}, 40, 1.0, 3)

	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))
	assert.Greater(t, Score(nb, X, y), 0.9)
	assertProbaRows(t, nb.PredictProba(X), 2)
}

func TestLogisticRegressionSeparable(t *testing.T) {
	X, y := blobs([][]float64{{-2, -2}, {2, 2}}, 40, 0.5, 4)

	lr := NewLogisticRegression(WithEpochs(300), WithLearningRate(0.5))
	require.NoError(t, lr.Fit(X, y))
	assert.Greater(t, Score(lr, X, y), 0.9)
	assertProbaRows(t, lr.PredictProba(X), 2)
}

func TestLogisticRegressionMulticlass(t *testing.T) {
	X, y := blobs([][]float64{{-4, 0}, {0, 4}, {4, 0}}, 40, 0.5, 5)

	lr := NewLogisticRegression(WithEpochs(400), WithLearningRate(0.5))
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, []int{0, 1, 2}, lr.Classes())
	assert.Greater(t, Score(lr, X, y), 0.85)
	assertProbaRows(t, lr.PredictProba(X), 3)
}

func TestBaggingDeterministicPerSeed(t *testing.T) {
	X, y := blobs([][]float64{{0, 0}, {6, 6}}, 30, 1.0, 6)

	a := NewBagging(WithBaggingRandomState(11))
	b := NewBagging(WithBaggingRandomState(11))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))
	assert.Equal(t, a.Predict(X), b.Predict(X))
	assert.Greater(t, Score(a, X, y), 0.9)
}

func TestAccuracy(t *testing.T) {
	assert.InDelta(t, 0.75, Accuracy([]int{0, 1, 1, 0}, []int{0, 1, 1, 1}), 1e-12)
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}
