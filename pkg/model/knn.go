package model

import (
	"errors"
	"runtime"
	"sort"
	"sync"
)

// KNNClassifier is a lazy k-nearest-neighbors classifier with majority
// voting. Probabilities are the vote shares among the K neighbors.
type KNNClassifier struct {
	K int

	trainX  [][]float64
	trainY  []int
	classes []int
}

// NewKNN creates a KNN classifier with k neighbors.
func NewKNN(k int) *KNNClassifier {
	if k < 1 {
		k = 1
	}
	return &KNNClassifier{K: k}
}

// Fit stores the training data and labels.
func (m *KNNClassifier) Fit(X [][]float64, y []int) error {
	if len(X) != len(y) {
		return errors.New("knn: the number of feature vectors must match the number of labels")
	}
	if len(X) == 0 {
		return errors.New("knn: empty X")
	}
	m.trainX = X
	m.trainY = y
	m.classes = uniqueSorted(y)
	return nil
}

// Predict returns the majority class among the K nearest training rows
// for each row of X. Rows are scored in parallel across CPU cores.
func (m *KNNClassifier) Predict(X [][]float64) []int {
	probas := m.PredictProba(X)
	out := make([]int, len(X))
	for i, row := range probas {
		out[i] = m.classes[argmaxFloat(row)]
	}
	return out
}

// PredictProba returns neighbor vote shares per class.
func (m *KNNClassifier) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	if len(X) == 0 {
		return out
	}

	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, len(X))
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				out[i] = m.probaSingle(X[i])
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

// Classes returns the sorted class labels seen during Fit.
func (m *KNNClassifier) Classes() []int { return m.classes }

// probaSingle keeps a small sorted slice of the K nearest neighbors.
func (m *KNNClassifier) probaSingle(xi []float64) []float64 {
	type pair struct {
		d float64
		c int
	}
	k := min(m.K, len(m.trainX))
	nbrs := make([]pair, 0, k+1)

	for j, xj := range m.trainX {
		distSquared := euclidSquared(xi, xj)
		neighbor := pair{d: distSquared, c: m.trainY[j]}
		if len(nbrs) < k {
			nbrs = append(nbrs, neighbor)
			sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		} else if distSquared < nbrs[len(nbrs)-1].d {
			nbrs[len(nbrs)-1] = neighbor
			sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		}
	}

	probas := make([]float64, len(m.classes))
	for _, p := range nbrs {
		probas[classIndex(p.c, m.classes)]++
	}
	for i := range probas {
		probas[i] /= float64(len(nbrs))
	}
	return probas
}

// euclidSquared computes the squared Euclidean distance between two
// vectors. Squared distance avoids the square root during comparisons.
func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
