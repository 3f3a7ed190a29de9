package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Mean computes the average of a slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Sum(x) / float64(len(x))
}

// Variance computes the variance of a slice in a single pass.
func Variance(x []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}
	sum, sumSq := 0.0, 0.0
	for _, v := range x {
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	return (sumSq / n) - (mean * mean)
}

// Std computes the standard deviation of a slice.
func Std(x []float64) float64 {
	return math.Sqrt(Variance(x))
}

// Sum returns the sum of all elements in the slice.
func Sum(x []float64) float64 {
	return floats.Sum(x)
}

// MinMax returns the minimum and maximum values in the slice.
func MinMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	return floats.Min(x), floats.Max(x)
}

// Argsort returns the indices that would sort x in ascending order.
// Ties keep their original relative order.
func Argsort(x []float64) []int {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	return idx
}

// SafeDivision returns a/b, or a/epsilon when b is zero.
func SafeDivision(a, b, epsilon float64) float64 {
	if b == 0 {
		return a / epsilon
	}
	return a / b
}

// PriorProbability estimates the empirical class distribution of y.
func PriorProbability(y []int) map[int]float64 {
	prior := make(map[int]float64)
	for _, c := range y {
		prior[c]++
	}
	for c := range prior {
		prior[c] /= float64(len(y))
	}
	return prior
}

// Softmax maps a score vector onto a probability simplex.
func Softmax(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	_, maxV := MinMax(x)
	sum := 0.0
	for i, v := range x {
		out[i] = math.Exp(v - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
