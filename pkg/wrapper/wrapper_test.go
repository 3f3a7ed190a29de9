package wrapper

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliciaolivaresgil/sslearn/pkg/dataset"
	"github.com/aliciaolivaresgil/sslearn/pkg/model"
)

func treeFactory() model.Classifier { return model.NewDecisionTree(model.WithMaxDepth(6)) }
func knnFactory() model.Classifier  { return model.NewKNN(3) }

// semiBlobs draws n points per class around the centers and masks all
// labels but keep per class. Returns the features, the partially
// labeled target and the full ground truth.
func semiBlobs(centers [][]float64, n, keep int, noise float64, seed int64) ([][]float64, []int, []int) {
	rng := rand.New(rand.NewSource(seed))
	var X [][]float64
	var yTrue []int
	for class, center := range centers {
		for i := 0; i < n; i++ {
			row := make([]float64, len(center))
			for j, c := range center {
				row[j] = c + rng.NormFloat64()*noise
			}
			X = append(X, row)
			yTrue = append(yTrue, class)
		}
	}
	y := make([]int, len(yTrue))
	for class := range centers {
		kept := 0
		for i, label := range yTrue {
			if label != class {
				continue
			}
			if kept < keep {
				y[i] = label
				kept++
			} else {
				y[i] = dataset.Unlabeled
			}
		}
	}
	return X, y, yTrue
}

func accuracyOf(t *testing.T, pred []int, truth []int) float64 {
	t.Helper()
	require.Len(t, pred, len(truth))
	return model.Accuracy(truth, pred)
}

// scriptedClassifier replays canned predictions, keyed by input length
// so the labeled and unlabeled sets each follow their own sequence.
// Fitting is a no-op; the last entry of a sequence repeats forever.
type scriptedClassifier struct {
	classes []int
	scripts map[int][][]int
	calls   map[int]int
}

func newScripted(classes []int) *scriptedClassifier {
	return &scriptedClassifier{classes: classes, scripts: map[int][][]int{}, calls: map[int]int{}}
}

func (s *scriptedClassifier) on(preds ...[]int) *scriptedClassifier {
	for _, p := range preds {
		s.scripts[len(p)] = append(s.scripts[len(p)], p)
	}
	return s
}

func (s *scriptedClassifier) Fit(X [][]float64, y []int) error { return nil }

func (s *scriptedClassifier) Predict(X [][]float64) []int {
	script := s.scripts[len(X)]
	idx := s.calls[len(X)]
	s.calls[len(X)]++
	if len(script) == 0 {
		return make([]int, len(X))
	}
	if idx >= len(script) {
		idx = len(script) - 1
	}
	out := make([]int, len(X))
	copy(out, script[idx])
	return out
}

func (s *scriptedClassifier) PredictProba(X [][]float64) [][]float64 {
	preds := s.Predict(X)
	out := make([][]float64, len(X))
	for i, p := range preds {
		row := make([]float64, len(s.classes))
		for c, class := range s.classes {
			if class == p {
				row[c] = 1
			}
		}
		out[i] = row
	}
	return out
}

func (s *scriptedClassifier) Classes() []int { return s.classes }

func scriptedFactory(learners ...model.Classifier) model.Factory {
	return func() model.Classifier {
		next := learners[0]
		learners = learners[1:]
		return next
	}
}

func constInts(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// ---------------------------
// Setred
// ---------------------------

func TestSetredImprovesOverMaskedLabels(t *testing.T) {
	X, y, yTrue := semiBlobs([][]float64{{0, 0}, {6, 6}}, 50, 5, 1.0, 1)

	trace := &TraceLog{}
	s := NewSetred(knnFactory, WithSetredRandomState(1), WithSetredTrace(trace))
	require.NoError(t, s.Fit(X, y))

	pred, err := s.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, accuracyOf(t, pred, yTrue), 0.85)
	assert.Equal(t, []int{0, 1}, s.Classes())
	assert.NotEmpty(t, trace.Events)
}

func TestSetredZeroThresholdAcceptsNothing(t *testing.T) {
	X, y, _ := semiBlobs([][]float64{{0, 0}, {6, 6}}, 30, 5, 1.0, 2)

	trace := &TraceLog{}
	s := NewSetred(knnFactory,
		WithSetredRejectionThreshold(0),
		WithSetredRandomState(2),
		WithSetredTrace(trace))
	require.NoError(t, s.Fit(X, y))

	// The survival probability can never fall below zero, so every
	// candidate is rejected and the labeled set never grows.
	for _, ev := range trace.Events {
		assert.Equal(t, 0, ev.Added[0])
	}
}

func TestSetredZeroVarianceFollowsZScoreSignCheck(t *testing.T) {
	// Unlabeled rows duplicating labeled points collapse every
	// candidate's nearest-neighbor distance to zero, so the similarity
	// weights, the null mean and the variance are all zero. The maxed
	// threshold then passes every survival check and acceptance comes
	// down to z < mu alone, which fails at the exact equality 0 < 0.
	labeled := [][]float64{{0, 0}, {1, 0}, {0, 1}, {5, 5}, {6, 5}, {5, 6}}
	yLabeled := []int{0, 0, 0, 1, 1, 1}

	var X [][]float64
	var y []int
	X = append(X, labeled...)
	y = append(y, yLabeled...)
	for r := 0; r < 2; r++ {
		for _, row := range labeled {
			X = append(X, append([]float64{}, row...))
			y = append(y, dataset.Unlabeled)
		}
	}

	trace := &TraceLog{}
	s := NewSetred(knnFactory,
		WithSetredMaxIterations(5),
		WithSetredPoolSize(1),
		WithSetredRejectionThreshold(1),
		WithSetredRandomState(17),
		WithSetredTrace(trace))
	require.NoError(t, s.Fit(X, y))

	require.NotEmpty(t, trace.Events)
	for _, ev := range trace.Events {
		assert.Equal(t, 0, ev.Added[0])
	}
	assert.Equal(t, []int{0, 1}, s.Classes())
}

func TestSetredInvalidParams(t *testing.T) {
	s := NewSetred(knnFactory, WithSetredPoolSize(2))
	assert.ErrorIs(t, s.Fit([][]float64{{0}}, []int{0}), ErrInvalidParams)
}

func TestSetredNotFitted(t *testing.T) {
	s := NewSetred(knnFactory)
	_, err := s.Predict([][]float64{{0, 0}})
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = s.PredictProba([][]float64{{0, 0}})
	assert.ErrorIs(t, err, ErrNotFitted)
}

// ---------------------------
// CoTraining
// ---------------------------

func TestCoTrainingBinaryOnly(t *testing.T) {
	X, y, _ := semiBlobs([][]float64{{0, 0}, {5, 5}, {10, 0}}, 20, 4, 0.5, 3)

	c := NewCoTraining(treeFactory)
	assert.ErrorIs(t, c.Fit(X, y), ErrNotBinary)
}

func TestCoTrainingQuotaValidation(t *testing.T) {
	X, y, _ := semiBlobs([][]float64{{0, 0}, {6, 6}}, 20, 4, 0.5, 4)

	c := NewCoTraining(treeFactory, WithCoTrainingPositives(2))
	assert.ErrorIs(t, c.Fit(X, y), ErrInvalidParams)
}

func TestCoTrainingTwoViews(t *testing.T) {
	// Four features; each view alone separates the classes.
	X, y, yTrue := semiBlobs([][]float64{{0, 0, 0, 0}, {6, 6, 6, 6}}, 40, 6, 1.0, 5)

	c := NewCoTraining(treeFactory, WithCoTrainingRandomState(5))
	require.NoError(t, c.FitViews(X, y, []int{0, 1}, []int{2, 3}))

	pred, err := c.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, accuracyOf(t, pred, yTrue), 0.85)

	probas, err := c.PredictProba(X)
	require.NoError(t, err)
	for _, row := range probas {
		assert.InDelta(t, 1.0, row[0]+row[1], 1e-9)
	}
}

func TestCoTrainingPreservesOriginalLabels(t *testing.T) {
	// Labels 3 and 9: predictions must come back in the original
	// label space, not as internal 0/1.
	X, y, yTrue := semiBlobs([][]float64{{0, 0}, {6, 6}}, 30, 5, 0.8, 6)
	for i := range y {
		if y[i] != dataset.Unlabeled {
			y[i] = y[i]*6 + 3
		}
		yTrue[i] = yTrue[i]*6 + 3
	}

	c := NewCoTraining(treeFactory, WithCoTrainingRandomState(6))
	require.NoError(t, c.Fit(X, y))
	assert.Equal(t, []int{3, 9}, c.Classes())

	pred, err := c.Predict(X)
	require.NoError(t, err)
	for _, p := range pred {
		assert.Contains(t, []int{3, 9}, p)
	}
	assert.Greater(t, accuracyOf(t, pred, yTrue), 0.85)
}

// ---------------------------
// CoTrainingByCommittee
// ---------------------------

func TestCommitteeFitsAndPredicts(t *testing.T) {
	X, y, yTrue := semiBlobs([][]float64{{0, 0}, {6, 6}}, 40, 6, 1.0, 7)

	c := NewCoTrainingByCommittee(nil, WithCommitteeRandomState(7), WithCommitteeMaxIterations(10))
	require.NoError(t, c.Fit(X, y))

	pred, err := c.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, accuracyOf(t, pred, yTrue), 0.85)
	assert.Equal(t, []int{0, 1}, c.Classes())
}

func TestCommitteeNotFitted(t *testing.T) {
	c := NewCoTrainingByCommittee(nil)
	_, err := c.Predict([][]float64{{0, 0}})
	assert.ErrorIs(t, err, ErrNotFitted)
}

// ---------------------------
// Rasco / RelRasco
// ---------------------------

func TestRascoIncrementalAddsAtMostOnePerClass(t *testing.T) {
	X, y, yTrue := semiBlobs([][]float64{{0, 0, 0, 0}, {6, 6, 6, 6}}, 30, 5, 1.0, 8)

	trace := &TraceLog{}
	r := NewRasco(treeFactory,
		WithRascoNEstimators(10),
		WithRascoMaxIterations(8),
		WithRascoRandomState(8),
		WithRascoTrace(trace))
	require.NoError(t, r.Fit(X, y))

	for _, ev := range trace.Events {
		assert.LessOrEqual(t, ev.Added[0], 2)
		assert.Greater(t, ev.Added[0], 0)
	}

	pred, err := r.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, accuracyOf(t, pred, yTrue), 0.85)
}

func TestRascoSubspaceSizes(t *testing.T) {
	X, y, _ := semiBlobs([][]float64{{0, 0, 0, 0}, {6, 6, 6, 6}}, 20, 5, 1.0, 9)

	r := NewRasco(treeFactory, WithRascoNEstimators(5), WithRascoMaxIterations(1), WithRascoRandomState(9))
	require.NoError(t, r.Fit(X, y))

	// Default subspace size is half the feature count.
	for _, cols := range r.Columns() {
		assert.Len(t, cols, 2)
	}
}

func TestRelRascoPrefersInformativeFeatures(t *testing.T) {
	// Features 0 and 1 separate the classes; 2 and 3 are pure noise.
	rng := rand.New(rand.NewSource(10))
	var X [][]float64
	var yTrue []int
	for class := 0; class < 2; class++ {
		for i := 0; i < 40; i++ {
			X = append(X, []float64{
				float64(class*6) + rng.NormFloat64(),
				float64(class*6) + rng.NormFloat64(),
				rng.NormFloat64(),
				rng.NormFloat64(),
			})
			yTrue = append(yTrue, class)
		}
	}
	y := make([]int, len(yTrue))
	copy(y, yTrue)
	for i := 10; i < len(y); i++ {
		if i%2 == 0 {
			y[i] = dataset.Unlabeled
		}
	}

	r := NewRelRasco(treeFactory, WithRascoNEstimators(8), WithRascoMaxIterations(5), WithRascoRandomState(10))
	require.NoError(t, r.Fit(X, y))

	informative, noisy := 0, 0
	for _, cols := range r.Columns() {
		for _, col := range cols {
			if col < 2 {
				informative++
			} else {
				noisy++
			}
		}
	}
	assert.Greater(t, informative, noisy)
}

// ---------------------------
// TriTraining
// ---------------------------

func TestTriTrainingFitsAndPredicts(t *testing.T) {
	X, y, yTrue := semiBlobs([][]float64{{0, 0}, {6, 6}, {0, 6}}, 40, 6, 0.8, 11)

	tt := NewTriTraining(treeFactory, WithTriTrainingRandomState(11))
	require.NoError(t, tt.Fit(X, y))

	pred, err := tt.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, accuracyOf(t, pred, yTrue), 0.85)
	assert.Len(t, tt.Hypotheses(), 3)
	assert.Equal(t, []int{0, 1, 2}, tt.Classes())
}

func TestTriTrainingDeterministicPerSeed(t *testing.T) {
	X, y, _ := semiBlobs([][]float64{{0, 0}, {6, 6}}, 40, 6, 1.0, 12)

	a := NewTriTraining(treeFactory, WithTriTrainingRandomState(12))
	b := NewTriTraining(treeFactory, WithTriTrainingRandomState(12))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	predA, err := a.Predict(X)
	require.NoError(t, err)
	predB, err := b.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, predA, predB)
}

func TestTriTrainingRejectsJointlyWrongAgreement(t *testing.T) {
	// Every pair of peers agrees on every labeled instance and is
	// always wrong, so the measured error ratio is exactly 1.0 and no
	// learner ever passes the improvement gate: the loop ends after a
	// single round with zero additions.
	X := make([][]float64, 30)
	y := make([]int, 30)
	for i := range X {
		X[i] = []float64{float64(i)}
		if i >= 20 {
			y[i] = dataset.Unlabeled
		}
	}

	wrong := func() model.Classifier {
		return newScripted([]int{0, 1}).on(constInts(20, 1), constInts(10, 1))
	}
	trace := &TraceLog{}
	tt := NewTriTraining(
		scriptedFactory(wrong(), wrong(), wrong()),
		WithTriTrainingTrace(trace))
	require.NoError(t, tt.Fit(X, y))

	assert.Empty(t, trace.Events)
	assert.Len(t, tt.Hypotheses(), 3)
}

func TestTriTrainingKeepsUpdateBoundAcrossRejectedRounds(t *testing.T) {
	// Learner 0's first qualifying round measures error 9/20 against
	// 5 agreeing candidates: its safe-update bound initializes to
	// floor(0.45/0.05)+1 = 10 and the round is rejected. The second
	// round measures 1/20 with all 30 unlabeled rows agreeing; the
	// bound set during the rejected round must still be in force, so
	// the plain-accept branch 0.05*30 < 0.5*10 takes every candidate
	// instead of subsampling against a freshly recomputed bound.
	X := make([][]float64, 50)
	y := make([]int, 50)
	for i := range X {
		X[i] = []float64{float64(i)}
		if i >= 20 {
			y[i] = dataset.Unlabeled
		}
	}

	// Round 1: learners 1 and 2 agree on the labeled set and are wrong
	// on 9 rows (learner 0's peers); learner 0 agrees with learner 2 on
	// 10 rows with 1 wrong (learner 1's peers, error 0.1, bound 1,
	// 10 candidates, subsampled to 4) and gives learner 2 no agreeing
	// unlabeled rows at all. Round 2: learners 1 and 2 agree everywhere
	// with a single wrong row while learner 0 predicts all ones, so
	// only learner 0 qualifies.
	labelA0 := constInts(20, 0)
	labelA0[0], labelA0[18], labelA0[19] = 1, 1, 1
	labelA12 := constInts(20, 0)
	for i := 0; i < 9; i++ {
		labelA12[i] = 1
	}
	labelB12 := constInts(20, 0)
	labelB12[0] = 1

	poolA0 := constInts(30, 0)
	poolA1 := constInts(30, 1)
	poolA2 := constInts(30, 2)
	for i := 0; i < 5; i++ {
		poolA0[i], poolA2[i] = 2, 1
	}
	for i := 5; i < 15; i++ {
		poolA1[i], poolA2[i] = 2, 0
	}

	learner0 := newScripted([]int{0, 1}).
		on(labelA0, poolA0, constInts(20, 1), constInts(30, 1))
	learner1 := newScripted([]int{0, 1}).
		on(labelA12, poolA1, labelB12, constInts(30, 0))
	learner2 := newScripted([]int{0, 1}).
		on(labelA12, poolA2, labelB12, constInts(30, 0))

	trace := &TraceLog{}
	tt := NewTriTraining(
		scriptedFactory(learner0, learner1, learner2),
		WithTriTrainingTrace(trace))
	require.NoError(t, tt.Fit(X, y))

	require.Len(t, trace.Events, 2)
	assert.Equal(t, []int{4}, trace.Events[0].Added)
	assert.Equal(t, []int{30}, trace.Events[1].Added)
}

// ---------------------------
// DemocraticCoLearning
// ---------------------------

func TestDemocraticHeterogeneousCommittee(t *testing.T) {
	X, y, yTrue := semiBlobs([][]float64{{0, 0}, {6, 6}}, 40, 8, 1.0, 13)

	d := NewDemocraticCoLearning([]model.Classifier{
		model.NewDecisionTree(model.WithMaxDepth(6)),
		model.NewGaussianNB(),
		model.NewKNN(3),
	})
	require.NoError(t, d.Fit(X, y))

	pred, err := d.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, accuracyOf(t, pred, yTrue), 0.85)

	// Every surviving hypothesis carries real voting power.
	require.NotEmpty(t, d.Hypotheses())
	for _, w := range d.Confidences() {
		assert.Greater(t, w, 0.5)
	}

	probas, err := d.PredictProba(X)
	require.NoError(t, err)
	for _, row := range probas {
		sum := 0.0
		for _, p := range row {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestDemocraticNeedsCommittee(t *testing.T) {
	d := NewDemocraticCoLearning([]model.Classifier{model.NewKNN(3)})
	assert.ErrorIs(t, d.Fit([][]float64{{0}}, []int{0}), ErrInvalidParams)
}

func TestDemocraticIdenticalCommitteeTerminatesImmediately(t *testing.T) {
	X, y, _ := semiBlobs([][]float64{{0, 0}, {6, 6}}, 30, 6, 1.0, 16)

	// Identical learners always agree, so no instance ever qualifies as
	// mislabeled and no learner commits a batch.
	trace := &TraceLog{}
	d := NewDemocraticCoLearning([]model.Classifier{
		model.NewKNN(3), model.NewKNN(3), model.NewKNN(3),
	}, WithDemocraticTrace(trace))
	require.NoError(t, d.Fit(X, y))
	assert.Empty(t, trace.Events)
}

func TestDemocraticFactoryWarnsWithoutSeed(t *testing.T) {
	trace := &TraceLog{}
	NewDemocraticFromFactory(knnFactory, 3, WithDemocraticTrace(trace))

	require.NotEmpty(t, trace.Events)
	assert.Contains(t, trace.Events[0].Warning, "diversity")
}

// ---------------------------
// CoForest
// ---------------------------

func TestCoForestFitsAndPredicts(t *testing.T) {
	X, y, yTrue := semiBlobs([][]float64{{0, 0}, {6, 6}}, 40, 6, 1.0, 14)

	c := NewCoForest(nil, WithCoForestRandomState(14))
	require.NoError(t, c.Fit(X, y))
	assert.Len(t, c.Hypotheses(), 7)

	pred, err := c.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, accuracyOf(t, pred, yTrue), 0.85)
}

func TestCoForestInvalidThreshold(t *testing.T) {
	c := NewCoForest(nil, WithCoForestThreshold(1))
	assert.ErrorIs(t, c.Fit([][]float64{{0}}, []int{0}), ErrInvalidParams)
}

// ---------------------------
// LearnerPool
// ---------------------------

func TestLearnerPoolSeedsDistinctLearners(t *testing.T) {
	rng := rand.New(rand.NewSource(15))
	p := NewLearnerPool(treeFactory, 4, rng)
	assert.Equal(t, 4, p.Len())

	X, y, _ := semiBlobs([][]float64{{0, 0}, {6, 6}}, 20, 10, 1.0, 15)
	views := make([][][]float64, 4)
	for i := range views {
		views[i] = X
	}
	require.NoError(t, p.FitViews(views, y))
	for _, learner := range p.Learners() {
		assert.NotNil(t, learner.Classes())
	}
}
