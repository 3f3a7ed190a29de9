package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, Unlabeled, 1, Unlabeled}

	XLabel, yLabel, XUnlabel, err := Partition(X, y)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0}, {2}}, XLabel)
	assert.Equal(t, []int{0, 1}, yLabel)
	assert.Equal(t, [][]float64{{1}, {3}}, XUnlabel)
}

func TestPartitionNoUnlabeled(t *testing.T) {
	X := [][]float64{{0}, {1}}
	y := []int{0, 1}

	XLabel, yLabel, XUnlabel, err := Partition(X, y)
	assert.ErrorIs(t, err, ErrNoUnlabeled)
	// The split is still usable so callers can degrade to supervised
	// training.
	assert.Len(t, XLabel, 2)
	assert.Len(t, yLabel, 2)
	assert.Empty(t, XUnlabel)
}

func TestSecure(t *testing.T) {
	// -1 collides with the sentinel, so every label shifts up by two.
	assert.Equal(t, []int{1, 2, 3}, Secure([]int{-1, 0, 1}))
	// No collision leaves the labels untouched.
	assert.Equal(t, []int{0, 1, 2}, Secure([]int{0, 1, 2}))
}

func TestTrainTestSplit(t *testing.T) {
	X := make([][]float64, 100)
	y := make([]int, 100)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = i % 2
	}

	XTrain, yTrain, XTest, yTest := TrainTestSplit(X, y, 0.25, 7)
	assert.Len(t, XTest, 25)
	assert.Len(t, XTrain, 75)
	require.Len(t, yTrain, 75)
	require.Len(t, yTest, 25)

	// Same seed, same split.
	XTrain2, _, _, _ := TrainTestSplit(X, y, 0.25, 7)
	assert.Equal(t, XTrain, XTrain2)
}

func TestMaskLabels(t *testing.T) {
	y := make([]int, 50)
	for i := range y {
		y[i] = i % 3
	}
	masked := MaskLabels(y, 0.4, 3)

	hidden := 0
	for _, label := range masked {
		if label == Unlabeled {
			hidden++
		}
	}
	assert.Equal(t, 20, hidden)
	// The input is untouched.
	assert.NotContains(t, y, Unlabeled)
}

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iris.csv")
	content := "5.1,3.5,setosa\n4.9,3.0,unlabeled\n6.2,2.9,versicolor\n?,3.1,setosa\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	X, y, classNames, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, X, 4)

	// String targets are label-encoded in sorted token order.
	assert.Equal(t, map[string]int{"setosa": 0, "versicolor": 1}, classNames)
	assert.Equal(t, []int{0, Unlabeled, 1, 0}, y)

	// A "?" cell loads as NaN until imputed.
	assert.True(t, math.IsNaN(X[3][0]))
	ImputeMean(X)
	assert.InDelta(t, (5.1+4.9+6.2)/3, X[3][0], 1e-9)
}

func TestReadKeel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toy.dat")
	content := `@relation toy
@attribute f1 real [0.0, 10.0]
@attribute f2 real [0.0, 10.0]
@attribute class {a, b}
@inputs f1, f2
@outputs class
@data
1.0, 2.0, a
3.0, 4.0, b
5.0, 6.0, unlabeled
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	X, y, classNames, err := ReadKeel(path)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}, {5, 6}}, X)
	assert.Equal(t, []int{0, 1, Unlabeled}, y)
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, classNames)
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{{1, 10}, {2, 10}, {3, 10}}
	scaled := (&StandardScaler{}).FitTransform(X)

	col := []float64{scaled[0][0], scaled[1][0], scaled[2][0]}
	sum := col[0] + col[1] + col[2]
	assert.InDelta(t, 0.0, sum, 1e-9)
	// The constant column centers without exploding.
	assert.Equal(t, 0.0, scaled[0][1])
	// The input is untouched.
	assert.Equal(t, 1.0, X[0][0])
}
