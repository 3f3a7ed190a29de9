package wrapper

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/aliciaolivaresgil/sslearn/pkg/dataset"
	"github.com/aliciaolivaresgil/sslearn/pkg/model"
	"github.com/aliciaolivaresgil/sslearn/pkg/stats"
)

// Rasco trains a committee of learners on random feature subspaces and
// grows the labeled set with the instances the committee agrees on most
// confidently (Wang, Luo & Zeng, 2008). The relevance-weighted variant
// RelRasco biases subspace selection towards features with high mutual
// information with the labels (Yaslan & Cataltepe, 2010).
type Rasco struct {
	// MaxIterations of -1 loops until the unlabeled pool is exhausted.
	MaxIterations int // 10
	NEstimators   int // 30
	// SubspaceSize defaults to half the feature count.
	SubspaceSize int
	// BatchSize is how many instances are promoted per iteration in
	// batch mode; it defaults to the initial labeled count. Incremental
	// mode instead promotes at most one instance per class.
	BatchSize   int
	Incremental bool
	RandomState int64

	relevanceWeighted bool
	base              model.Factory
	trace             Trace

	ensemble
}

// RascoOption is a functional config for Rasco and RelRasco.
type RascoOption func(*Rasco)

func WithRascoMaxIterations(n int) RascoOption { return func(r *Rasco) { r.MaxIterations = n } }
func WithRascoNEstimators(n int) RascoOption   { return func(r *Rasco) { r.NEstimators = n } }
func WithSubspaceSize(n int) RascoOption       { return func(r *Rasco) { r.SubspaceSize = n } }
func WithRascoBatchSize(n int) RascoOption     { return func(r *Rasco) { r.BatchSize = n } }
func WithRascoIncremental(on bool) RascoOption { return func(r *Rasco) { r.Incremental = on } }
func WithRascoRandomState(seed int64) RascoOption {
	return func(r *Rasco) { r.RandomState = seed }
}
func WithRascoTrace(t Trace) RascoOption { return func(r *Rasco) { r.trace = t } }

// NewRasco creates the uniform random-subspace engine.
func NewRasco(base model.Factory, opts ...RascoOption) *Rasco {
	r := &Rasco{
		MaxIterations: 10,
		NEstimators:   30,
		Incremental:   true,
		base:          base,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewRelRasco creates the relevance-weighted variant.
func NewRelRasco(base model.Factory, opts ...RascoOption) *Rasco {
	r := NewRasco(base, opts...)
	r.relevanceWeighted = true
	return r
}

// Fit runs the subspace committee loop over the mixed dataset.
func (r *Rasco) Fit(X [][]float64, y []int) error {
	if r.NEstimators <= 0 || r.MaxIterations == 0 || r.MaxIterations < -1 {
		return fmt.Errorf("%w: NEstimators must be positive and MaxIterations positive or -1", ErrInvalidParams)
	}
	rng := rand.New(rand.NewSource(r.RandomState))

	XLabel, yLabel, XUnlabel, _ := dataset.Partition(X, y)
	if len(XLabel) == 0 {
		return fmt.Errorf("%w: no labeled instances", ErrInvalidParams)
	}

	nFeatures := len(X[0])
	subspaceSize := r.SubspaceSize
	if subspaceSize <= 0 {
		subspaceSize = nFeatures / 2
	}
	if subspaceSize > nFeatures {
		return fmt.Errorf("%w: subspace size %d exceeds feature count %d", ErrInvalidParams, subspaceSize, nFeatures)
	}
	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = len(XLabel)
	}

	subspaces := r.drawSubspaces(XLabel, yLabel, nFeatures, subspaceSize, rng)

	learners := make([]model.Classifier, r.NEstimators)
	for i := range learners {
		learners[i] = cloneSeeded(r.base, rng)
	}
	pool := &LearnerPool{learners: learners}

	fitAll := func() error {
		views := make([][][]float64, len(subspaces))
		for i, cols := range subspaces {
			views[i] = selectColumns(XLabel, cols)
		}
		return pool.FitViews(views, yLabel)
	}
	if err := fitAll(); err != nil {
		return err
	}

	classes := learners[0].Classes()

	for it := 0; (r.MaxIterations == -1 || it < r.MaxIterations) && len(XUnlabel) > 0; it++ {
		probas := r.committeeProbas(learners, subspaces, XUnlabel, classes)
		conf, col := maxProba(probas)

		var chosen []int
		var warning string
		if r.Incremental {
			chosen, warning = pickOnePerClass(conf, col, classes)
		} else {
			order := stats.Argsort(conf)
			take := min(batchSize, len(order))
			chosen = append(chosen, order[len(order)-take:]...)
			sort.Ints(chosen)
		}
		if len(chosen) == 0 {
			break
		}

		for _, pos := range chosen {
			XLabel = append(XLabel, XUnlabel[pos])
			yLabel = append(yLabel, classes[col[pos]])
		}
		XUnlabel = removeRows(XUnlabel, chosen)

		if err := fitAll(); err != nil {
			return err
		}
		emit(r.trace, TraceEvent{Engine: r.name(), Iteration: it + 1, Added: []int{len(chosen)}, Warning: warning})
	}

	r.hypotheses = learners
	r.columns = subspaces
	r.classes = classes
	return nil
}

// Predict returns the committee's argmax class per row.
func (r *Rasco) Predict(X [][]float64) ([]int, error) { return r.predict(X) }

// PredictProba averages the subspace learners' probabilities; columns
// follow Classes().
func (r *Rasco) PredictProba(X [][]float64) ([][]float64, error) { return r.predictProba(X) }

func (r *Rasco) name() string {
	if r.relevanceWeighted {
		return "relrasco"
	}
	return "rasco"
}

// drawSubspaces produces one column set per committee slot. The uniform
// variant takes a random permutation prefix; the relevance-weighted one
// plays a two-candidate tournament per position, keeping the feature
// with higher mutual information.
func (r *Rasco) drawSubspaces(XLabel [][]float64, yLabel []int, nFeatures, size int, rng *rand.Rand) [][]int {
	subspaces := make([][]int, r.NEstimators)
	var relevance []float64
	if r.relevanceWeighted {
		relevance = stats.MutualInformation(XLabel, yLabel)
	}
	for i := range subspaces {
		if !r.relevanceWeighted {
			subspaces[i] = append([]int(nil), rng.Perm(nFeatures)[:size]...)
			continue
		}
		cols := make([]int, size)
		for j := range cols {
			f1, f2 := rng.Intn(nFeatures), rng.Intn(nFeatures)
			if relevance[f1] > relevance[f2] {
				cols[j] = f1
			} else {
				cols[j] = f2
			}
		}
		subspaces[i] = cols
	}
	return subspaces
}

// committeeProbas averages the per-subspace probabilities, aligned on
// the shared sorted class list.
func (r *Rasco) committeeProbas(learners []model.Classifier, subspaces [][]int, X [][]float64, classes []int) [][]float64 {
	sum := make([][]float64, len(X))
	for i := range sum {
		sum[i] = make([]float64, len(classes))
	}
	for li, learner := range learners {
		probas := learner.PredictProba(selectColumns(X, subspaces[li]))
		for i, row := range probas {
			for c, p := range row {
				sum[i][indexOf(learner.Classes()[c], classes)] += p
			}
		}
	}
	for i := range sum {
		for c := range sum[i] {
			sum[i][c] /= float64(len(learners))
		}
	}
	return sum
}

// pickOnePerClass selects, for every class, the single unlabeled
// instance predicted as that class with the highest confidence. Classes
// nothing was predicted as are reported in the warning.
func pickOnePerClass(conf []float64, col []int, classes []int) (chosen []int, warning string) {
	for c, class := range classes {
		best, bestConf := -1, -1.0
		for i, predicted := range col {
			if predicted == c && conf[i] > bestConf {
				best, bestConf = i, conf[i]
			}
		}
		if best == -1 {
			if warning != "" {
				warning += "; "
			}
			warning += fmt.Sprintf("no instance predicted as class %d this iteration", class)
			continue
		}
		chosen = append(chosen, best)
	}
	sort.Ints(chosen)
	return chosen, warning
}
