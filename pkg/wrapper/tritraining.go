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

// TriTraining trains three classifiers on bootstrap resamples and lets
// every pair teach the third: instances both peers agree on become
// pseudo-labels, accepted only while the pair's measured error keeps
// the PAC bound e'·l' < e·l improving (Zhou & Li, 2005).
type TriTraining struct {
	RandomState int64

	base  model.Factory
	trace Trace

	ensemble
}

const triLearners = 3

// TriTrainingOption is a functional config for TriTraining.
type TriTrainingOption func(*TriTraining)

func WithTriTrainingRandomState(seed int64) TriTrainingOption {
	return func(t *TriTraining) { t.RandomState = seed }
}
func WithTriTrainingTrace(tr Trace) TriTrainingOption { return func(t *TriTraining) { t.trace = tr } }

// NewTriTraining creates the engine around the base learner factory.
func NewTriTraining(base model.Factory, opts ...TriTrainingOption) *TriTraining {
	t := &TriTraining{base: base}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit runs tri-training until no classifier updates.
func (t *TriTraining) Fit(X [][]float64, y []int) error {
	rng := rand.New(rand.NewSource(t.RandomState))

	XLabel, yLabel, XUnlabel, _ := dataset.Partition(X, y)
	if len(XLabel) == 0 {
		return fmt.Errorf("%w: no labeled instances", ErrInvalidParams)
	}

	learners := make([]model.Classifier, triLearners)
	for i := range learners {
		learners[i] = cloneSeeded(t.base, rng)
	}
	pool := &LearnerPool{learners: learners}

	// Bootstrap resamples, each guaranteed at least one instance of
	// every class so Classes() agrees across learners.
	anchorsX, anchorsY := onePerClass(XLabel, yLabel)
	fits := make([]func() error, triLearners)
	for i := range learners {
		bx, by := bootstrap(XLabel, yLabel, rng)
		bx = append(append([][]float64{}, anchorsX...), bx...)
		by = append(append([]int{}, anchorsY...), by...)
		learner, resX, resY := learners[i], bx, by
		fits[i] = func() error { return learner.Fit(resX, resY) }
	}
	if err := pool.Run(fits); err != nil {
		return err
	}

	errRate := [triLearners]float64{0.5, 0.5, 0.5}
	accepted := [triLearners]float64{0, 0, 0}

	for iteration := 1; ; iteration++ {
		// All decisions this round use the hypotheses as they stood at
		// the start of the round.
		labelPreds := make([][]int, triLearners)
		unlabelPreds := make([][]int, triLearners)
		for i, learner := range learners {
			labelPreds[i] = learner.Predict(XLabel)
			if len(XUnlabel) > 0 {
				unlabelPreds[i] = learner.Predict(XUnlabel)
			}
		}

		update := [triLearners]bool{}
		var candX [triLearners][][]float64
		var candY [triLearners][]int
		newError := [triLearners]float64{}

		for i := 0; i < triLearners; i++ {
			j, k := (i+1)%triLearners, (i+2)%triLearners

			agreements, wrong := 0, 0
			for n := range yLabel {
				if labelPreds[j][n] == labelPreds[k][n] {
					agreements++
					if labelPreds[j][n] != yLabel[n] {
						wrong++
					}
				}
			}
			newError[i] = stats.SafeDivision(float64(wrong), float64(agreements), epsilon)
			if newError[i] >= errRate[i] {
				continue
			}

			var cx [][]float64
			var cy []int
			for n := range XUnlabel {
				if unlabelPreds[j][n] == unlabelPreds[k][n] {
					cx = append(cx, XUnlabel[n])
					cy = append(cy, unlabelPreds[j][n])
				}
			}

			// The safe-update bound keeps its floor-initialized value
			// even when this round is rejected below; only an accepted
			// round overwrites it with the committed candidate count.
			if accepted[i] == 0 {
				accepted[i] = math.Floor(stats.SafeDivision(newError[i], errRate[i]-newError[i], epsilon) + 1)
			}
			li := accepted[i]
			if li >= float64(len(cx)) {
				continue
			}
			if newError[i]*float64(len(cx)) < errRate[i]*li {
				update[i] = true
			} else if li > stats.SafeDivision(newError[i], errRate[i]-newError[i], epsilon) {
				keep := int(math.Ceil(stats.SafeDivision(errRate[i]*li, newError[i], epsilon) - 1))
				subsample := rng.Perm(len(cx))[:keep]
				sort.Ints(subsample)
				cx, cy = selectRows(cx, subsample), selectRowsInt(cy, subsample)
				update[i] = true
			}
			if update[i] {
				candX[i], candY[i] = cx, cy
			}
		}

		refits := make([]func() error, 0, triLearners)
		added := make([]int, 0, triLearners)
		for i := 0; i < triLearners; i++ {
			if !update[i] {
				continue
			}
			learner := learners[i]
			trainX := append(append([][]float64{}, XLabel...), candX[i]...)
			trainY := append(append([]int{}, yLabel...), candY[i]...)
			refits = append(refits, func() error { return learner.Fit(trainX, trainY) })
			errRate[i] = newError[i]
			accepted[i] = float64(len(candY[i]))
			added = append(added, len(candY[i]))
		}
		if len(refits) == 0 {
			break
		}
		if err := pool.Run(refits); err != nil {
			return err
		}
		emit(t.trace, TraceEvent{Engine: "tritraining", Iteration: iteration, Added: added})
	}

	cols := fullColumns(len(X[0]))
	t.hypotheses = learners
	t.columns = [][]int{cols, cols, cols}
	t.classes = learners[0].Classes()
	return nil
}

// Predict returns the majority vote over the three hypotheses via the
// averaged probabilities.
func (t *TriTraining) Predict(X [][]float64) ([]int, error) { return t.predict(X) }

// PredictProba averages the three hypotheses' probabilities; columns
// follow Classes().
func (t *TriTraining) PredictProba(X [][]float64) ([][]float64, error) { return t.predictProba(X) }

// bootstrap draws len(X) rows with replacement.
func bootstrap(X [][]float64, y []int, rng *rand.Rand) ([][]float64, []int) {
	bx := make([][]float64, len(X))
	by := make([]int, len(y))
	for i := range bx {
		r := rng.Intn(len(X))
		bx[i], by[i] = X[r], y[r]
	}
	return bx, by
}

// onePerClass returns the first instance of every class, in class order.
func onePerClass(X [][]float64, y []int) ([][]float64, []int) {
	first := make(map[int]int)
	for i, label := range y {
		if _, ok := first[label]; !ok {
			first[label] = i
		}
	}
	classes := make([]int, 0, len(first))
	for label := range first {
		classes = append(classes, label)
	}
	sort.Ints(classes)
	ax := make([][]float64, len(classes))
	ay := make([]int, len(classes))
	for i, label := range classes {
		ax[i], ay[i] = X[first[label]], label
	}
	return ax, ay
}
