package model

import (
	"errors"
	"math/rand"
	"sync"
)

// BaggingClassifier trains NEstimators decision trees on bootstrap
// resamples and averages their probability estimates.
type BaggingClassifier struct {
	// Hyperparameters / options
	NEstimators int
	MaxDepth    int
	MaxFeatures int
	RandomState int64

	trees   []*DecisionTreeClassifier
	classes []int
}

// BaggingOption is a functional config for BaggingClassifier.
type BaggingOption func(*BaggingClassifier)

func WithNEstimators(n int) BaggingOption {
	return func(b *BaggingClassifier) { b.NEstimators = n }
}
func WithBaggingMaxDepth(d int) BaggingOption {
	return func(b *BaggingClassifier) { b.MaxDepth = d }
}
func WithBaggingMaxFeatures(k int) BaggingOption {
	return func(b *BaggingClassifier) { b.MaxFeatures = k }
}
func WithBaggingRandomState(seed int64) BaggingOption {
	return func(b *BaggingClassifier) { b.RandomState = seed }
}

// NewBagging initializes the ensemble with sensible defaults.
func NewBagging(opts ...BaggingOption) *BaggingClassifier {
	b := &BaggingClassifier{NEstimators: 10}
	for _, o := range opts {
		o(b)
	}
	return b
}

// SetRandomState implements Seeded.
func (b *BaggingClassifier) SetRandomState(seed int64) { b.RandomState = seed }

// Fit trains every tree on an index-based bootstrap resample. Trees are
// fitted in parallel; each gets its own seeded random source.
func (b *BaggingClassifier) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("bagging: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("bagging: X and y length mismatch")
	}
	b.classes = uniqueSorted(y)

	b.trees = make([]*DecisionTreeClassifier, b.NEstimators)
	errCh := make(chan error, b.NEstimators)
	var wg sync.WaitGroup
	for i := 0; i < b.NEstimators; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			treeRand := rand.New(rand.NewSource(b.RandomState + int64(slot)))
			Xb := make([][]float64, n)
			yb := make([]int, n)
			for j := 0; j < n; j++ {
				k := treeRand.Intn(n)
				Xb[j] = X[k]
				yb[j] = y[k]
			}
			tree := NewDecisionTree(
				WithMaxDepth(b.MaxDepth),
				WithMaxFeatures(b.MaxFeatures),
				WithTreeRandomState(b.RandomState+int64(slot)),
			)
			if err := tree.Fit(Xb, yb); err != nil {
				errCh <- err
				return
			}
			b.trees[slot] = tree
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// Predict returns the class with the highest averaged probability.
func (b *BaggingClassifier) Predict(X [][]float64) []int {
	probas := b.PredictProba(X)
	out := make([]int, len(X))
	for i, row := range probas {
		out[i] = b.classes[argmaxFloat(row)]
	}
	return out
}

// PredictProba averages the trees' probability rows. A bootstrap sample
// may miss a rare class, so each tree's columns are remapped onto the
// ensemble class list by label value.
func (b *BaggingClassifier) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, len(b.classes))
	}
	if len(b.trees) == 0 {
		for i := range out {
			for c := range out[i] {
				out[i][c] = 1.0 / float64(len(b.classes))
			}
		}
		return out
	}
	for _, tree := range b.trees {
		probas := tree.PredictProba(X)
		treeClasses := tree.Classes()
		for i, row := range probas {
			for tc, p := range row {
				out[i][classIndex(treeClasses[tc], b.classes)] += p
			}
		}
	}
	m := float64(len(b.trees))
	for i := range out {
		for c := range out[i] {
			out[i][c] /= m
		}
	}
	return out
}

// Classes returns the sorted class labels seen during Fit.
func (b *BaggingClassifier) Classes() []int { return b.classes }
