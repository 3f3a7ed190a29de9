package wrapper

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/aliciaolivaresgil/sslearn/pkg/dataset"
	"github.com/aliciaolivaresgil/sslearn/pkg/model"
	"github.com/aliciaolivaresgil/sslearn/pkg/stats"
)

// CoTraining is the two-view co-training engine of Blum & Mitchell
// (COLT'98). Two classifiers, each restricted to its own feature view,
// repeatedly pseudo-label the most confident positives and negatives
// from a bounded active pool. Binary classification only.
type CoTraining struct {
	// Hyperparameters / options
	MaxIterations int // 30
	PoolSize      int // size of the active unlabeled pool
	// Positives/Negatives are how many instances each classifier labels
	// per class per iteration; -1 derives both from the labeled class
	// ratio. Either both or neither must be set.
	Positives   int
	Negatives   int
	RandomState int64

	base       model.Factory
	secondBase model.Factory
	trace      Trace

	ensemble
}

// CoTrainingOption is a functional config for CoTraining.
type CoTrainingOption func(*CoTraining)

func WithCoTrainingMaxIterations(n int) CoTrainingOption {
	return func(c *CoTraining) { c.MaxIterations = n }
}
func WithCoTrainingPoolSize(n int) CoTrainingOption { return func(c *CoTraining) { c.PoolSize = n } }
func WithCoTrainingPositives(n int) CoTrainingOption {
	return func(c *CoTraining) { c.Positives = n }
}
func WithCoTrainingNegatives(n int) CoTrainingOption {
	return func(c *CoTraining) { c.Negatives = n }
}
func WithCoTrainingRandomState(seed int64) CoTrainingOption {
	return func(c *CoTraining) { c.RandomState = seed }
}

// WithSecondLearner supplies the factory for the second view's
// classifier; by default the first factory is cloned for both views.
func WithSecondLearner(f model.Factory) CoTrainingOption {
	return func(c *CoTraining) { c.secondBase = f }
}
func WithCoTrainingTrace(t Trace) CoTrainingOption { return func(c *CoTraining) { c.trace = t } }

// NewCoTraining creates a CoTraining engine around the base learner
// factory.
func NewCoTraining(base model.Factory, opts ...CoTrainingOption) *CoTraining {
	c := &CoTraining{
		MaxIterations: 30,
		PoolSize:      75,
		Positives:     -1,
		Negatives:     -1,
		base:          base,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fit trains both classifiers on the full feature space as a duplicated
// view.
func (c *CoTraining) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: empty X", ErrInvalidParams)
	}
	full := fullColumns(len(X[0]))
	return c.FitViews(X, y, full, full)
}

// FitViews trains each classifier on its own column subset of X.
func (c *CoTraining) FitViews(X [][]float64, y []int, view1, view2 []int) error {
	if err := c.validate(); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(c.RandomState))

	_, yLabel, _, _ := dataset.Partition(X, y)
	classes := uniqueClassList(yLabel)
	if len(classes) > 2 {
		return ErrNotBinary
	}
	if len(classes) < 2 {
		return fmt.Errorf("%w: co-training needs two labeled classes", ErrInvalidParams)
	}

	// Binarize: classes[0] -> 0, classes[1] -> 1.
	yWork := make([]int, len(y))
	labeledIdx := make([]int, 0, len(y))
	unlabeledIdx := make([]int, 0, len(y))
	for i, label := range y {
		switch label {
		case dataset.Unlabeled:
			yWork[i] = dataset.Unlabeled
			unlabeledIdx = append(unlabeledIdx, i)
		case classes[0]:
			yWork[i] = 0
			labeledIdx = append(labeledIdx, i)
		default:
			yWork[i] = 1
			labeledIdx = append(labeledIdx, i)
		}
	}

	positives, negatives := c.Positives, c.Negatives
	if positives == -1 && negatives == -1 {
		numPos, numNeg := 0, 0
		for _, i := range labeledIdx {
			if yWork[i] == 1 {
				numPos++
			} else {
				numNeg++
			}
		}
		ratio := float64(numNeg) / float64(numPos)
		if ratio > 1 {
			positives = 1
			negatives = int(math.Round(ratio))
		} else {
			negatives = 1
			positives = int(math.Round(1 / ratio))
		}
	}
	if positives <= 0 || negatives <= 0 {
		return fmt.Errorf("%w: positives and negatives must be positive", ErrInvalidParams)
	}

	X1 := selectColumns(X, view1)
	X2 := selectColumns(X, view2)

	h0 := cloneSeeded(c.base, rng)
	secondBase := c.secondBase
	if secondBase == nil {
		secondBase = c.base
	}
	h1 := cloneSeeded(secondBase, rng)

	// U is the shuffled unlabeled index set, U_ the bounded active pool
	// drawn from its tail.
	U := append([]int(nil), unlabeledIdx...)
	rng.Shuffle(len(U), func(a, b int) { U[a], U[b] = U[b], U[a] })
	poolTake := min(len(U), c.PoolSize)
	active := append([]int(nil), U[len(U)-poolTake:]...)
	U = U[:len(U)-poolTake]

	L := append([]int(nil), labeledIdx...)

	pool := &LearnerPool{learners: []model.Classifier{h0, h1}}
	fitBoth := func() error {
		return pool.Run([]func() error{
			func() error { return h0.Fit(selectRows(X1, L), selectRowsInt(yWork, L)) },
			func() error { return h1.Fit(selectRows(X2, L), selectRowsInt(yWork, L)) },
		})
	}

	for it := 0; it < c.MaxIterations && len(U) > 0; it++ {
		if err := fitBoth(); err != nil {
			return err
		}

		proba0 := h0.PredictProba(selectRows(X1, active))
		proba1 := h1.PredictProba(selectRows(X2, active))

		// Position in the active pool -> pseudo-label; negatives win a
		// conflict, matching the original assignment order.
		picked := make(map[int]int)
		for _, probas := range [][][]float64{proba0, proba1} {
			for _, pos := range topColumn(probas, 1, positives) {
				picked[pos] = 1
			}
		}
		for _, probas := range [][][]float64{proba0, proba1} {
			for _, pos := range topColumn(probas, 0, negatives) {
				picked[pos] = 0
			}
		}

		positions := make([]int, 0, len(picked))
		for pos := range picked {
			positions = append(positions, pos)
		}
		sort.Ints(positions)

		for _, pos := range positions {
			idx := active[pos]
			yWork[idx] = picked[pos]
			L = append(L, idx)
		}

		// Drop the promoted instances from the active pool and refill
		// it from U by the same count.
		remaining := active[:0]
		for pos, idx := range active {
			if _, gone := picked[pos]; !gone {
				remaining = append(remaining, idx)
			}
		}
		active = remaining
		for refill := len(positions); refill > 0 && len(U) > 0; refill-- {
			active = append(active, U[len(U)-1])
			U = U[:len(U)-1]
		}

		emit(c.trace, TraceEvent{Engine: "cotraining", Iteration: it + 1, Added: []int{len(positions)}})
	}

	if err := fitBoth(); err != nil {
		return err
	}

	c.hypotheses = []model.Classifier{h0, h1}
	c.columns = [][]int{view1, view2}
	c.classes = classes
	return nil
}

// Predict returns the consolidated class predictions.
func (c *CoTraining) Predict(X [][]float64) ([]int, error) {
	binary, err := c.predict(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(binary))
	for i, b := range binary {
		out[i] = c.classes[b]
	}
	return out, nil
}

// PredictProba averages both views' probabilities; columns follow
// Classes().
func (c *CoTraining) PredictProba(X [][]float64) ([][]float64, error) {
	if !c.fitted() {
		return nil, ErrNotFitted
	}
	proba0 := c.hypotheses[0].PredictProba(selectColumns(X, c.columns[0]))
	proba1 := c.hypotheses[1].PredictProba(selectColumns(X, c.columns[1]))
	return averageBinaryProbas(proba0, proba1, c.hypotheses[0].Classes(), c.hypotheses[1].Classes()), nil
}

// predict overrides the shared ensemble argmax because the internal
// hypotheses carry binarized labels.
func (c *CoTraining) predict(X [][]float64) ([]int, error) {
	probas, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probas))
	for i, row := range probas {
		out[i] = argmax(row)
	}
	return out, nil
}

func (c *CoTraining) validate() error {
	if (c.Positives == -1) != (c.Negatives == -1) {
		return fmt.Errorf("%w: either both positives and negatives are specified, or neither", ErrInvalidParams)
	}
	if c.MaxIterations <= 0 || c.PoolSize <= 0 {
		return fmt.Errorf("%w: MaxIterations and PoolSize must be positive", ErrInvalidParams)
	}
	return nil
}

// topColumn returns the active-pool positions of the count highest
// probabilities in the given class column, gated at > 0.5.
func topColumn(probas [][]float64, column, count int) []int {
	colVals := make([]float64, len(probas))
	for i, row := range probas {
		colVals[i] = row[column]
	}
	order := stats.Argsort(colVals)
	picked := make([]int, 0, count)
	for i := len(order) - 1; i >= 0 && len(picked) < count; i-- {
		if colVals[order[i]] > 0.5 {
			picked = append(picked, order[i])
		}
	}
	return picked
}

// averageBinaryProbas aligns two binary probability matrices on the
// internal 0/1 classes and averages them.
func averageBinaryProbas(a, b [][]float64, classesA, classesB []int) [][]float64 {
	out := make([][]float64, len(a))
	for i := range a {
		row := make([]float64, 2)
		for c, p := range a[i] {
			row[classesA[c]] += p / 2
		}
		for c, p := range b[i] {
			row[classesB[c]] += p / 2
		}
		out[i] = row
	}
	return out
}

func selectRowsInt(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}

func uniqueClassList(y []int) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0, 4)
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
