package wrapper

import (
	"errors"
	"math/rand"

	"github.com/aliciaolivaresgil/sslearn/pkg/model"
)

var (
	// ErrNotFitted reports a prediction request before Fit completed.
	ErrNotFitted = errors.New("wrapper: classifier not fitted")
	// ErrInvalidParams reports an inconsistent engine configuration.
	ErrInvalidParams = errors.New("wrapper: invalid parameters")
	// ErrNotBinary reports more than two classes given to the
	// binary-only co-training engine.
	ErrNotBinary = errors.New("wrapper: co-training only supports binary classification")
)

// epsilon is the smallest denominator substituted into otherwise
// zero-divided ratios (IEEE 754 double machine epsilon).
const epsilon = 2.220446049250313e-16

// ensemble holds the fitted hypothesis collection shared by the
// multi-learner engines: one classifier per slot together with the
// feature columns (view) it was trained on.
type ensemble struct {
	hypotheses []model.Classifier
	columns    [][]int // nil column set means the full feature space
	classes    []int
}

// Hypotheses returns the fitted hypothesis collection.
func (e *ensemble) Hypotheses() []model.Classifier { return e.hypotheses }

// Classes returns the consolidated ordered class list.
func (e *ensemble) Classes() []int { return e.classes }

// Columns returns the per-hypothesis feature-column assignment.
func (e *ensemble) Columns() [][]int { return e.columns }

func (e *ensemble) fitted() bool { return len(e.hypotheses) > 0 }

// predictProba averages the hypotheses' probability estimates, each on
// its own view projection, aligning columns through class values.
func (e *ensemble) predictProba(X [][]float64) ([][]float64, error) {
	if !e.fitted() {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, len(e.classes))
	}
	for hi, h := range e.hypotheses {
		var view [][]float64
		if e.columns != nil && e.columns[hi] != nil {
			view = selectColumns(X, e.columns[hi])
		} else {
			view = X
		}
		probas := h.PredictProba(view)
		hClasses := h.Classes()
		for i, row := range probas {
			for c, p := range row {
				out[i][indexOf(hClasses[c], e.classes)] += p
			}
		}
	}
	k := float64(len(e.hypotheses))
	for i := range out {
		for c := range out[i] {
			out[i][c] /= k
		}
	}
	return out, nil
}

// predict takes the argmax class of the averaged probabilities.
func (e *ensemble) predict(X [][]float64) ([]int, error) {
	probas, err := e.predictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(X))
	for i, row := range probas {
		out[i] = e.classes[argmax(row)]
	}
	return out, nil
}

// ---------------------------
// Shared slice helpers
// ---------------------------

// cloneSeeded builds a fresh learner from the factory and reseeds it
// from the engine's random stream when it supports seeding.
func cloneSeeded(base model.Factory, rng *rand.Rand) model.Classifier {
	clf := base()
	if s, ok := clf.(model.Seeded); ok {
		s.SetRandomState(rng.Int63())
	}
	return clf
}

// selectColumns projects every row of X onto the given column subset.
func selectColumns(X [][]float64, cols []int) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		sub := make([]float64, len(cols))
		for j, c := range cols {
			sub[j] = row[c]
		}
		out[i] = sub
	}
	return out
}

// selectRows gathers the rows of X at the given indices.
func selectRows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, r := range idx {
		out[i] = X[r]
	}
	return out
}

// removeRows returns X without the rows whose indices are in idx.
func removeRows(X [][]float64, idx []int) [][]float64 {
	drop := make(map[int]struct{}, len(idx))
	for _, r := range idx {
		drop[r] = struct{}{}
	}
	out := make([][]float64, 0, len(X)-len(drop))
	for i, row := range X {
		if _, gone := drop[i]; !gone {
			out = append(out, row)
		}
	}
	return out
}

// maxProba returns, per row, the highest probability and its column.
func maxProba(probas [][]float64) (conf []float64, col []int) {
	conf = make([]float64, len(probas))
	col = make([]int, len(probas))
	for i, row := range probas {
		c := argmax(row)
		col[i] = c
		conf[i] = row[c]
	}
	return conf, col
}

func argmax(row []float64) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}

// indexOf looks up value in a sorted ascending slice.
func indexOf(value int, sorted []int) int {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if sorted[mid] < value {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func fullColumns(nFeatures int) []int {
	cols := make([]int, nFeatures)
	for i := range cols {
		cols[i] = i
	}
	return cols
}
