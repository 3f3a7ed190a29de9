package wrapper

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/aliciaolivaresgil/sslearn/pkg/dataset"
	"github.com/aliciaolivaresgil/sslearn/pkg/model"
	"github.com/aliciaolivaresgil/sslearn/pkg/stats"
)

// CoTrainingByCommittee grows the labeled set with the pseudo-labels an
// ensemble is most confident about, drawn from a random pool each
// iteration and balanced against the labeled class proportions
// (Hady & Schwenker, 2008).
type CoTrainingByCommittee struct {
	MaxIterations int // 100
	PoolSize      int // 100
	// MinInstancesForClass guarantees every class at least this many
	// candidates per iteration when confidence alone would starve it.
	MinInstancesForClass int // 3
	RandomState          int64

	factory model.Factory
	trace   Trace

	estimator model.Classifier
	classes   []int
}

// CommitteeOption is a functional config for CoTrainingByCommittee.
type CommitteeOption func(*CoTrainingByCommittee)

func WithCommitteeMaxIterations(n int) CommitteeOption {
	return func(c *CoTrainingByCommittee) { c.MaxIterations = n }
}
func WithCommitteePoolSize(n int) CommitteeOption {
	return func(c *CoTrainingByCommittee) { c.PoolSize = n }
}
func WithMinInstancesForClass(n int) CommitteeOption {
	return func(c *CoTrainingByCommittee) { c.MinInstancesForClass = n }
}
func WithCommitteeRandomState(seed int64) CommitteeOption {
	return func(c *CoTrainingByCommittee) { c.RandomState = seed }
}
func WithCommitteeTrace(t Trace) CommitteeOption {
	return func(c *CoTrainingByCommittee) { c.trace = t }
}

// NewCoTrainingByCommittee creates the engine. A nil factory defaults
// to a bagging committee of decision trees.
func NewCoTrainingByCommittee(factory model.Factory, opts ...CommitteeOption) *CoTrainingByCommittee {
	if factory == nil {
		factory = func() model.Classifier { return model.NewBagging() }
	}
	c := &CoTrainingByCommittee{
		MaxIterations:        100,
		PoolSize:             100,
		MinInstancesForClass: 3,
		factory:              factory,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fit runs the committee co-training loop over the mixed dataset.
func (c *CoTrainingByCommittee) Fit(X [][]float64, y []int) error {
	if c.MaxIterations <= 0 || c.PoolSize <= 0 || c.MinInstancesForClass < 0 {
		return fmt.Errorf("%w: MaxIterations and PoolSize must be positive", ErrInvalidParams)
	}
	rng := rand.New(rand.NewSource(c.RandomState))

	XLabel, yLabel, XUnlabel, _ := dataset.Partition(X, y)
	if len(XLabel) == 0 {
		return fmt.Errorf("%w: no labeled instances", ErrInvalidParams)
	}

	clf := cloneSeeded(c.factory, rng)
	if err := clf.Fit(XLabel, yLabel); err != nil {
		return err
	}
	prior := stats.PriorProbability(yLabel)

	// One permutation for the whole run; labeled instances leave it and
	// the pool window slides over the survivors.
	perm := rng.Perm(len(XUnlabel))

	for it := 0; it < c.MaxIterations && len(perm) > 0; it++ {
		window := perm
		if len(window) > c.PoolSize {
			window = window[:c.PoolSize]
		}
		poolX := selectRows(XUnlabel, window)

		probas := clf.PredictProba(poolX)
		conf, col := maxProba(probas)
		predicted := make([]int, len(col))
		for i, cc := range col {
			predicted[i] = clf.Classes()[cc]
		}

		// Every class keeps its most confident candidates even when the
		// proportional draw would skip it entirely.
		selected := make(map[int]struct{})
		for _, class := range clf.Classes() {
			classPos := make([]int, 0)
			classConf := make([]float64, 0)
			for i, p := range predicted {
				if p == class {
					classPos = append(classPos, i)
					classConf = append(classConf, conf[i])
				}
			}
			order := stats.Argsort(classConf)
			for i := len(order) - 1; i >= 0 && len(order)-1-i < c.MinInstancesForClass; i-- {
				selected[classPos[order[i]]] = struct{}{}
			}
		}
		for _, pos := range stats.ChoiceWithProportion(conf, predicted, prior, c.MinInstancesForClass) {
			selected[pos] = struct{}{}
		}
		if len(selected) == 0 {
			break
		}

		positions := make([]int, 0, len(selected))
		for pos := range selected {
			positions = append(positions, pos)
		}
		sort.Ints(positions)

		taken := make(map[int]struct{}, len(positions))
		for _, pos := range positions {
			XLabel = append(XLabel, poolX[pos])
			yLabel = append(yLabel, predicted[pos])
			taken[window[pos]] = struct{}{}
		}
		survivors := perm[:0]
		for _, idx := range perm {
			if _, gone := taken[idx]; !gone {
				survivors = append(survivors, idx)
			}
		}
		perm = survivors

		if err := clf.Fit(XLabel, yLabel); err != nil {
			return err
		}
		emit(c.trace, TraceEvent{Engine: "committee", Iteration: it + 1, Added: []int{len(positions)}})
	}

	c.estimator = clf
	c.classes = clf.Classes()
	return nil
}

// Predict delegates to the fitted committee.
func (c *CoTrainingByCommittee) Predict(X [][]float64) ([]int, error) {
	if c.estimator == nil {
		return nil, ErrNotFitted
	}
	return c.estimator.Predict(X), nil
}

// PredictProba delegates to the fitted committee; columns follow
// Classes().
func (c *CoTrainingByCommittee) PredictProba(X [][]float64) ([][]float64, error) {
	if c.estimator == nil {
		return nil, ErrNotFitted
	}
	return c.estimator.PredictProba(X), nil
}

// Score returns the mean accuracy of the fitted committee on (X, y).
func (c *CoTrainingByCommittee) Score(X [][]float64, y []int) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	return model.Accuracy(y, pred), nil
}

// Classes returns the sorted class labels seen during Fit.
func (c *CoTrainingByCommittee) Classes() []int { return c.classes }
