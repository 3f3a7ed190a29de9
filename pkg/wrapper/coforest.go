package wrapper

import (
	"fmt"
	"math/rand"

	"github.com/aliciaolivaresgil/sslearn/pkg/dataset"
	"github.com/aliciaolivaresgil/sslearn/pkg/model"
)

// CoForest grows a random forest where each tree is retrained with the
// unlabeled instances its peers are confident about, accepted while the
// weighted error product ei_t * Wi_t keeps shrinking (Li & Zhou, 2007).
type CoForest struct {
	NEstimators int     // 7
	Threshold   float64 // 0.75
	RandomState int64

	base  model.Factory
	trace Trace

	ensemble
}

// CoForestOption is a functional config for CoForest.
type CoForestOption func(*CoForest)

func WithCoForestNEstimators(n int) CoForestOption { return func(c *CoForest) { c.NEstimators = n } }
func WithCoForestThreshold(t float64) CoForestOption {
	return func(c *CoForest) { c.Threshold = t }
}
func WithCoForestRandomState(seed int64) CoForestOption {
	return func(c *CoForest) { c.RandomState = seed }
}
func WithCoForestTrace(t Trace) CoForestOption { return func(c *CoForest) { c.trace = t } }

// NewCoForest creates the engine. A nil factory defaults to decision
// trees.
func NewCoForest(base model.Factory, opts ...CoForestOption) *CoForest {
	if base == nil {
		base = func() model.Classifier { return model.NewDecisionTree() }
	}
	c := &CoForest{
		NEstimators: 7,
		Threshold:   0.75,
		base:        base,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fit runs the co-forest refinement loop over the mixed dataset.
func (c *CoForest) Fit(X [][]float64, y []int) error {
	if c.NEstimators <= 0 || c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("%w: NEstimators must be positive and Threshold in [0, 1)", ErrInvalidParams)
	}
	rng := rand.New(rand.NewSource(c.RandomState))

	XLabel, yLabel, XUnlabel, _ := dataset.Partition(X, y)
	if len(XLabel) == 0 {
		return fmt.Errorf("%w: no labeled instances", ErrInvalidParams)
	}

	trees := make([]model.Classifier, c.NEstimators)
	errRate := make([]float64, c.NEstimators)
	weight := make([]float64, c.NEstimators)
	for i := range trees {
		trees[i] = cloneSeeded(c.base, rng)
		if err := trees[i].Fit(XLabel, yLabel); err != nil {
			return err
		}
		errRate[i] = 0.5
		conf, _ := maxProba(trees[i].PredictProba(XLabel))
		for _, v := range conf {
			weight[i] += v
		}
	}

	for round := 1; ; round++ {
		changing := false
		for i, tree := range trees {
			ei, wi := errRate[i], weight[i]
			eit := estimateError(tree, XLabel, yLabel)
			wit := wi

			if eit < ei {
				take := int(ei * wi / eit)
				if take > len(XUnlabel) {
					take = len(XUnlabel)
				}
				sample := rng.Perm(len(XUnlabel))[:take]
				Uit := selectRows(XUnlabel, sample)

				conf, col := maxProba(tree.PredictProba(Uit))
				var trainX [][]float64
				var trainY []int
				wit = 0
				for j, p := range conf {
					if p > c.Threshold {
						wit += p
						trainX = append(trainX, Uit[j])
						trainY = append(trainY, tree.Classes()[col[j]])
					}
				}

				if eit*wit < ei*wi {
					changing = true
					trainX = append(append([][]float64{}, XLabel...), trainX...)
					trainY = append(append([]int{}, yLabel...), trainY...)
					if err := tree.Fit(trainX, trainY); err != nil {
						return err
					}
				}
			}
			errRate[i] = eit
			weight[i] = wit
		}
		if !changing {
			break
		}
		emit(c.trace, TraceEvent{Engine: "coforest", Iteration: round, Weights: append([]float64(nil), weight...)})
	}

	cols := fullColumns(len(X[0]))
	c.hypotheses = trees
	c.columns = make([][]int, c.NEstimators)
	for i := range c.columns {
		c.columns[i] = cols
	}
	c.classes = trees[0].Classes()
	return nil
}

// Predict returns the forest's argmax class per row.
func (c *CoForest) Predict(X [][]float64) ([]int, error) { return c.predict(X) }

// PredictProba averages the trees' probabilities; columns follow
// Classes().
func (c *CoForest) PredictProba(X [][]float64) ([][]float64, error) { return c.predictProba(X) }

// estimateError sums 1 - P(true class) over the labeled set, floored to
// machine epsilon so the sampling ratio stays finite.
func estimateError(tree model.Classifier, X [][]float64, y []int) float64 {
	probas := tree.PredictProba(X)
	classes := tree.Classes()
	e := 0.0
	for j, row := range probas {
		e += 1 - row[indexOf(y[j], classes)]
	}
	if e == 0 {
		e = epsilon
	}
	return e
}
