package dataset

import (
	"math"

	"github.com/aliciaolivaresgil/sslearn/pkg/stats"
)

// StandardScaler standardizes every feature column to zero mean and
// unit variance. Columns with zero variance pass through unchanged.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// Fit learns the per-column mean and standard deviation.
func (s *StandardScaler) Fit(X [][]float64) {
	if len(X) == 0 {
		return
	}
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)
	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		s.Mean[j] = stats.Mean(col)
		s.Std[j] = stats.Std(col)
	}
}

// Transform returns a standardized copy of X using the fitted moments.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled := make([]float64, len(row))
		for j, v := range row {
			if s.Std[j] == 0 {
				scaled[j] = v - s.Mean[j]
			} else {
				scaled[j] = (v - s.Mean[j]) / s.Std[j]
			}
		}
		out[i] = scaled
	}
	return out
}

// FitTransform fits the scaler and standardizes X in one call.
func (s *StandardScaler) FitTransform(X [][]float64) [][]float64 {
	s.Fit(X)
	return s.Transform(X)
}

// ImputeMean replaces NaN cells with their column mean, computed over
// the observed values. A column with no observed values imputes to 0.
// The matrix is modified in place and returned.
func ImputeMean(X [][]float64) [][]float64 {
	if len(X) == 0 {
		return X
	}
	cols := len(X[0])
	for j := 0; j < cols; j++ {
		sum, n := 0.0, 0
		for i := range X {
			if !math.IsNaN(X[i][j]) {
				sum += X[i][j]
				n++
			}
		}
		mean := 0.0
		if n > 0 {
			mean = sum / float64(n)
		}
		for i := range X {
			if math.IsNaN(X[i][j]) {
				X[i][j] = mean
			}
		}
	}
	return X
}
