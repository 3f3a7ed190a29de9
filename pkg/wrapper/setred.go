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

// Setred is self-training with editing: each iteration pseudo-labels
// the most confident pool predictions, then statistically rejects the
// ones whose nearest labeled neighborhood looks too surprising under a
// null "the label is wrong with prior probability" hypothesis.
//
// Li, Ming, and Zhi-Hua Zhou. "SETRED: Self-training with editing."
// PAKDD 2005.
type Setred struct {
	// Hyperparameters / options
	MaxIterations      int     // fixed iteration count, no early stop
	PoolSize           float64 // fraction of the unlabeled set sampled per iteration
	RejectionThreshold float64 // significance level for the edit test
	GraphNeighbors     int     // neighbors per candidate in the distance graph
	RandomState        int64

	base  model.Factory
	trace Trace

	clf     model.Classifier
	classes []int
}

// SetredOption is a functional config for Setred.
type SetredOption func(*Setred)

func WithSetredMaxIterations(n int) SetredOption { return func(s *Setred) { s.MaxIterations = n } }
func WithSetredPoolSize(f float64) SetredOption  { return func(s *Setred) { s.PoolSize = f } }
func WithSetredRejectionThreshold(t float64) SetredOption {
	return func(s *Setred) { s.RejectionThreshold = t }
}
func WithSetredGraphNeighbors(k int) SetredOption { return func(s *Setred) { s.GraphNeighbors = k } }
func WithSetredRandomState(seed int64) SetredOption {
	return func(s *Setred) { s.RandomState = seed }
}
func WithSetredTrace(t Trace) SetredOption { return func(s *Setred) { s.trace = t } }

// NewSetred creates a Setred engine around the base learner factory.
func NewSetred(base model.Factory, opts ...SetredOption) *Setred {
	s := &Setred{
		MaxIterations:      40,
		PoolSize:           0.25,
		RejectionThreshold: 0.05,
		GraphNeighbors:     1,
		base:               base,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Fit grows the labeled set from (X, y) rows sentineled with
// dataset.Unlabeled and leaves one fitted hypothesis.
func (s *Setred) Fit(X [][]float64, y []int) error {
	if s.MaxIterations < 0 || s.PoolSize <= 0 || s.PoolSize > 1 || s.GraphNeighbors < 1 {
		return fmt.Errorf("%w: setred needs MaxIterations >= 0, PoolSize in (0,1], GraphNeighbors >= 1", ErrInvalidParams)
	}
	rng := rand.New(rand.NewSource(s.RandomState))

	XLabel, yLabel, XUnlabel, _ := dataset.Partition(X, y)
	if len(XLabel) == 0 {
		return fmt.Errorf("%w: setred needs at least one labeled instance", ErrInvalidParams)
	}

	// The initial labeled size bounds the candidate set per iteration.
	candidatesPerIteration := len(XLabel)
	pool := int(float64(len(XUnlabel)) * s.PoolSize)

	clf := cloneSeeded(s.base, rng)
	if err := clf.Fit(XLabel, yLabel); err != nil {
		return err
	}

	// Priors are estimated once from the initial labeled set.
	prior := stats.PriorProbability(yLabel)

	for it := 0; it < s.MaxIterations; it++ {
		if len(XUnlabel) == 0 {
			break
		}
		take := min(pool, len(XUnlabel))
		if take == 0 {
			take = min(1, len(XUnlabel))
		}
		sampled := rng.Perm(len(XUnlabel))[:take]
		U := selectRows(XUnlabel, sampled)

		probas := clf.PredictProba(U)
		conf, col := maxProba(probas)
		order := stats.Argsort(conf)
		if len(order) > candidatesPerIteration {
			order = order[len(order)-candidatesPerIteration:]
		}

		clfClasses := clf.Classes()
		candX := selectRows(U, order)
		candY := make([]int, len(order))
		for i, pos := range order {
			candY[i] = clfClasses[col[pos]]
		}

		// Distance graph over labeled ∪ candidates, edges incident on
		// the candidates, inverted into similarity weights.
		weights := neighborhoodWeights(XLabel, candX, s.GraphNeighbors)

		accepted := make([]bool, len(candX))
		for i := range candX {
			pWrong := 1 - prior[candY[i]]
			var wSum, wSqSum, observed float64
			for _, w := range weights[i] {
				wSum += w
				wSqSum += w * w
				if rng.Float64() < pWrong {
					observed += w
				}
			}
			mu := pWrong * wSum
			sigma := math.Sqrt((1 - pWrong) * pWrong * wSqSum)
			z := 0.0
			if sigma != 0 {
				z = (observed - mu) / sigma
			}
			oi := stats.NormalSurvival(math.Abs(z), mu, sigma)
			accepted[i] = oi < s.RejectionThreshold && z < mu
		}

		var removed []int
		added := 0
		for i, ok := range accepted {
			if !ok {
				continue
			}
			XLabel = append(XLabel, candX[i])
			yLabel = append(yLabel, candY[i])
			removed = append(removed, sampled[order[i]])
			added++
		}
		sort.Ints(removed)
		XUnlabel = removeRows(XUnlabel, removed)

		if err := clf.Fit(XLabel, yLabel); err != nil {
			return err
		}
		emit(s.trace, TraceEvent{Engine: "setred", Iteration: it + 1, Added: []int{added}})
	}

	s.clf = clf
	s.classes = clf.Classes()
	return nil
}

// Predict returns the fitted hypothesis' class predictions.
func (s *Setred) Predict(X [][]float64) ([]int, error) {
	if s.clf == nil {
		return nil, ErrNotFitted
	}
	return s.clf.Predict(X), nil
}

// PredictProba returns the fitted hypothesis' class probabilities.
func (s *Setred) PredictProba(X [][]float64) ([][]float64, error) {
	if s.clf == nil {
		return nil, ErrNotFitted
	}
	return s.clf.PredictProba(X), nil
}

// Classes returns the fitted class list.
func (s *Setred) Classes() []int { return s.classes }

// neighborhoodWeights finds, for each candidate, its k nearest rows
// among labeled ∪ candidates (excluding itself) and inverts the
// distances into similarity weights. A zero distance maps to a zero
// weight rather than dividing by zero.
func neighborhoodWeights(labeled, candidates [][]float64, k int) [][]float64 {
	all := make([][]float64, 0, len(labeled)+len(candidates))
	all = append(all, labeled...)
	all = append(all, candidates...)

	out := make([][]float64, len(candidates))
	for i := range candidates {
		self := len(labeled) + i
		dists := make([]float64, 0, len(all)-1)
		for j, row := range all {
			if j == self {
				continue
			}
			dists = append(dists, math.Sqrt(euclideanSquared(candidates[i], row)))
		}
		sort.Float64s(dists)
		kk := min(k, len(dists))
		ws := make([]float64, 0, kk)
		for _, d := range dists[:kk] {
			if d == 0 {
				ws = append(ws, 0)
			} else {
				ws = append(ws, 1/d)
			}
		}
		out[i] = ws
	}
	return out
}

func euclideanSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
