package wrapper

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/aliciaolivaresgil/sslearn/pkg/dataset"
	"github.com/aliciaolivaresgil/sslearn/pkg/model"
	"github.com/aliciaolivaresgil/sslearn/pkg/stats"
)

// DemocraticCoLearning runs several different learners that teach each
// other: the confidence-weighted vote relabels instances a learner got
// wrong, and a learner only accepts its new batch while the quality
// measure q = |L|(1-2e/|L|)^2 keeps improving (Zhou & Goldman, 2004).
// Prediction combines only hypotheses whose final mean confidence
// exceeds 0.5, through group-averaged weights and a softmax.
type DemocraticCoLearning struct {
	// ExpandOnlyMislabeled restricts a learner's new batch to instances
	// it mispredicted; when false, instances all learners already agree
	// on are eligible too.
	ExpandOnlyMislabeled bool
	ConfidenceMethod     stats.IntervalMethod
	Alpha                float64 // 0.95
	RandomState          int64

	learners []model.Classifier
	trace    Trace

	hypotheses  []model.Classifier
	confidences []float64
	classes     []int
}

// DemocraticOption is a functional config for DemocraticCoLearning.
type DemocraticOption func(*DemocraticCoLearning)

func WithExpandOnlyMislabeled(on bool) DemocraticOption {
	return func(d *DemocraticCoLearning) { d.ExpandOnlyMislabeled = on }
}
func WithConfidenceMethod(m stats.IntervalMethod) DemocraticOption {
	return func(d *DemocraticCoLearning) { d.ConfidenceMethod = m }
}
func WithAlpha(alpha float64) DemocraticOption {
	return func(d *DemocraticCoLearning) { d.Alpha = alpha }
}
func WithDemocraticRandomState(seed int64) DemocraticOption {
	return func(d *DemocraticCoLearning) { d.RandomState = seed }
}
func WithDemocraticTrace(t Trace) DemocraticOption {
	return func(d *DemocraticCoLearning) { d.trace = t }
}

// NewDemocraticCoLearning takes an explicit heterogeneous committee.
// The learners should differ; a homogeneous committee has nothing to
// teach itself.
func NewDemocraticCoLearning(learners []model.Classifier, opts ...DemocraticOption) *DemocraticCoLearning {
	d := &DemocraticCoLearning{
		ExpandOnlyMislabeled: true,
		ConfidenceMethod:     stats.Bernoulli,
		Alpha:                0.95,
		learners:             learners,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// NewDemocraticFromFactory builds a committee of n seeded clones. If
// the base learner is not Seeded the clones are identical and the
// committee cannot converge usefully; a trace warning is emitted.
func NewDemocraticFromFactory(base model.Factory, n int, opts ...DemocraticOption) *DemocraticCoLearning {
	d := NewDemocraticCoLearning(nil, opts...)
	rng := rand.New(rand.NewSource(d.RandomState))
	d.learners = make([]model.Classifier, n)
	for i := range d.learners {
		d.learners[i] = cloneSeeded(base, rng)
	}
	if _, ok := d.learners[0].(model.Seeded); !ok {
		emit(d.trace, TraceEvent{
			Engine:  "democratic",
			Warning: "base learner ignores random state, committee lacks diversity",
		})
	}
	return d
}

// Fit runs democratic co-learning until no learner accepts new
// instances.
func (d *DemocraticCoLearning) Fit(X [][]float64, y []int) error {
	n := len(d.learners)
	if n < 2 {
		return fmt.Errorf("%w: democratic co-learning needs at least two learners", ErrInvalidParams)
	}
	if d.Alpha <= 0 || d.Alpha >= 1 {
		return fmt.Errorf("%w: alpha must be in (0, 1)", ErrInvalidParams)
	}

	XLabel, yLabel, XUnlabel, _ := dataset.Partition(X, y)
	if len(XLabel) == 0 {
		return fmt.Errorf("%w: no labeled instances", ErrInvalidParams)
	}
	classes := uniqueClassList(yLabel)

	// Per-learner training sets, all starting from the labeled data,
	// plus a mask preventing the same unlabeled instance from being
	// added twice to the same learner.
	L := make([][][]float64, n)
	Ly := make([][]int, n)
	added := make([][]bool, n)
	estError := make([]float64, n)
	for i := range d.learners {
		L[i] = append([][]float64(nil), XLabel...)
		Ly[i] = append([]int(nil), yLabel...)
		added[i] = make([]bool, len(XUnlabel))
	}

	pool := &LearnerPool{learners: d.learners}

	for iteration := 1; ; iteration++ {
		fits := make([]func() error, n)
		for i := range d.learners {
			learner, trainX, trainY := d.learners[i], L[i], Ly[i]
			fits[i] = func() error { return learner.Fit(trainX, trainY) }
		}
		if err := pool.Run(fits); err != nil {
			return err
		}
		if len(XUnlabel) == 0 {
			break
		}

		predictions := make([][]int, n)
		for i, learner := range d.learners {
			predictions[i] = learner.Predict(XUnlabel)
		}
		majority := majorityVote(predictions)

		weights := make([]float64, n)
		for i, learner := range d.learners {
			lo, hi := d.interval(learner, XLabel, yLabel)
			weights[i] = (lo + hi) / 2
		}
		ponderate := ponderateVote(predictions, weights, classes)

		var allSame []bool
		if !d.ExpandOnlyMislabeled {
			allSame = make([]bool, len(XUnlabel))
			for j := range allSame {
				allSame[j] = true
				for i := 1; i < n; i++ {
					if predictions[i][j] != predictions[i-1][j] {
						allSame[j] = false
						break
					}
				}
			}
		}

		// Candidate batches per learner: mispredicted instances whose
		// weighted vote agrees with the majority, not yet added.
		batches := make([][]int, n)
		for i := range d.learners {
			for j := range XUnlabel {
				eligible := predictions[i][j] != ponderate[j] && ponderate[j] == majority[j]
				if !d.ExpandOnlyMislabeled {
					eligible = eligible || allSame[j]
				}
				if eligible && !added[i][j] {
					batches[i] = append(batches[i], j)
				}
			}
		}

		// Shared mislabel-rate estimate from the lower confidence
		// bounds on each learner's current training set.
		lowerSum := 0.0
		for i, learner := range d.learners {
			lo, _ := d.interval(learner, L[i], Ly[i])
			lowerSum += lo
		}
		eFactor := 1 - lowerSum/float64(n)

		changed := false
		grew := make([]int, n)
		for i := range d.learners {
			batch := batches[i]
			if len(batch) == 0 {
				continue
			}
			size := float64(len(L[i]))
			quality := size * sq(1-2*estError[i]/size)
			batchError := eFactor * float64(len(batch))
			newSize := size + float64(len(batch))
			newQuality := newSize * sq(1-2*(estError[i]+batchError)/newSize)
			if newQuality <= quality {
				continue
			}
			for _, j := range batch {
				added[i][j] = true
				L[i] = append(L[i], XUnlabel[j])
				Ly[i] = append(Ly[i], ponderate[j])
			}
			estError[i] += batchError
			grew[i] = len(batch)
			changed = true
		}
		if !changed {
			break
		}
		emit(d.trace, TraceEvent{Engine: "democratic", Iteration: iteration, Added: grew, Weights: weights})
	}

	// Hypotheses whose final mean confidence on the labeled data is at
	// most 0.5 carry no voting power and are dropped.
	d.hypotheses = d.hypotheses[:0]
	d.confidences = d.confidences[:0]
	for _, learner := range d.learners {
		lo, hi := d.interval(learner, XLabel, yLabel)
		if w := (lo + hi) / 2; w > 0.5 {
			d.hypotheses = append(d.hypotheses, learner)
			d.confidences = append(d.confidences, w)
		}
	}
	d.classes = classes
	return nil
}

// Predict returns the argmax class of the combined group probabilities.
func (d *DemocraticCoLearning) Predict(X [][]float64) ([]int, error) {
	probas, err := d.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probas))
	for i, row := range probas {
		out[i] = d.classes[argmax(row)]
	}
	return out, nil
}

// PredictProba combines the surviving hypotheses per instance: each
// class's group of agreeing hypotheses contributes its mean confidence,
// damped for small groups, and the class scores pass through a softmax.
func (d *DemocraticCoLearning) PredictProba(X [][]float64) ([][]float64, error) {
	if d.classes == nil {
		return nil, ErrNotFitted
	}
	votes := make([][]int, len(d.hypotheses))
	for h, learner := range d.hypotheses {
		votes[h] = learner.Predict(X)
	}
	out := make([][]float64, len(X))
	for i := range X {
		scores := make([]float64, len(d.classes))
		for c, class := range d.classes {
			sum, size := 0.0, 0
			for h := range d.hypotheses {
				if votes[h][i] == class {
					sum += d.confidences[h]
					size++
				}
			}
			if size == 0 {
				scores[c] = 0.5
			} else {
				scores[c] = (float64(size) + 0.5) / (float64(size) + 1) * (sum / float64(size))
			}
		}
		out[i] = stats.Softmax(scores)
	}
	return out, nil
}

// Classes returns the sorted class labels seen during Fit.
func (d *DemocraticCoLearning) Classes() []int { return d.classes }

// Hypotheses returns the learners that survived the confidence filter.
func (d *DemocraticCoLearning) Hypotheses() []model.Classifier { return d.hypotheses }

// Confidences returns the voting weight of each surviving hypothesis.
func (d *DemocraticCoLearning) Confidences() []float64 { return d.confidences }

func (d *DemocraticCoLearning) interval(learner model.Classifier, X [][]float64, y []int) (float64, float64) {
	pred := learner.Predict(X)
	return stats.ProportionInterval(model.Accuracy(y, pred), len(y), d.ConfidenceMethod, d.Alpha)
}

// majorityVote returns the most voted label per column; ties go to the
// smallest label.
func majorityVote(predictions [][]int) []int {
	out := make([]int, len(predictions[0]))
	for j := range out {
		counts := make(map[int]int)
		for i := range predictions {
			counts[predictions[i][j]]++
		}
		labels := make([]int, 0, len(counts))
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Ints(labels)
		best, bestCount := labels[0], counts[labels[0]]
		for _, label := range labels[1:] {
			if counts[label] > bestCount {
				best, bestCount = label, counts[label]
			}
		}
		out[j] = best
	}
	return out
}

// ponderateVote returns, per column, the class whose supporters carry
// the largest summed weight.
func ponderateVote(predictions [][]int, weights []float64, classes []int) []int {
	out := make([]int, len(predictions[0]))
	for j := range out {
		sums := make([]float64, len(classes))
		for i := range predictions {
			sums[indexOf(predictions[i][j], classes)] += weights[i]
		}
		out[j] = classes[argmax(sums)]
	}
	return out
}

func sq(x float64) float64 { return x * x }
