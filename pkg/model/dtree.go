package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeClassifier is a CART-style classifier over dense float
// feature rows and integer class labels.
type DecisionTreeClassifier struct {
	// Hyperparameters / options
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	Criterion           string  // "gini" (default) or "entropy"
	MaxFeatures         int     // 0 => use all features, >0 => number of features sampled per split
	MinImpurityDecrease float64 // minimal impurity decrease to accept a split
	RandomState         int64   // seed for feature subsampling

	// internals
	root    *dtNode
	classes []int // sorted class labels; proba columns follow this order
}

// dtNode holds a node in the tree.
type dtNode struct {
	isLeaf    bool
	feature   int
	threshold float64 // x <= threshold => left
	left      *dtNode
	right     *dtNode

	probas    []float64 // leaf distribution aligned with tree.classes
	predIndex int       // majority class index
}

// TreeOption is a functional config for DecisionTreeClassifier.
type TreeOption func(*DecisionTreeClassifier)

func WithMaxDepth(d int) TreeOption { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) TreeOption {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) TreeOption { return func(t *DecisionTreeClassifier) { t.Criterion = c } }
func WithMaxFeatures(k int) TreeOption  { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithMinImpurityDecrease(v float64) TreeOption {
	return func(t *DecisionTreeClassifier) { t.MinImpurityDecrease = v }
}
func WithTreeRandomState(seed int64) TreeOption {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTree returns a classifier with sensible defaults.
func NewDecisionTree(opts ...TreeOption) *DecisionTreeClassifier {
	d := &DecisionTreeClassifier{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// SetRandomState implements Seeded.
func (t *DecisionTreeClassifier) SetRandomState(seed int64) { t.RandomState = seed }

// ---------------------------
// Public API
// ---------------------------

// Fit trains the decision tree on X (n x p) and y (n labels).
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("dtree: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("dtree: X and y length mismatch")
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return errors.New("dtree: inconsistent number of features in X rows")
		}
	}

	t.classes = uniqueSorted(y)

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rnd := rand.New(rand.NewSource(t.RandomState))

	impurityFunc := giniFromCounts
	if t.Criterion == "entropy" {
		impurityFunc = entropyFromCounts
	}

	t.root = t.buildNode(X, y, idx, 0, p, impurityFunc, rnd)
	return nil
}

// Predict returns the majority-leaf class label for each row of X.
func (t *DecisionTreeClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range X {
		probs := t.predictProbaSingle(X[i])
		out[i] = t.classes[argmaxFloat(probs)]
	}
	return out
}

// PredictProba returns the per-class probability vectors for rows in X.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		row := t.predictProbaSingle(X[i])
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Classes returns the sorted class labels seen during Fit.
func (t *DecisionTreeClassifier) Classes() []int { return t.classes }

// ---------------------------
// Internal builders & helpers
// ---------------------------

type splitResult struct {
	gain      float64
	feature   int
	threshold float64
	leftIdx   []int
	rightIdx  []int
}

func (t *DecisionTreeClassifier) buildNode(X [][]float64, y []int, idx []int, depth, p int, impurity func([]int) float64, rnd *rand.Rand) *dtNode {
	node := &dtNode{}

	counts := make([]int, len(t.classes))
	for _, ii := range idx {
		counts[classIndex(y[ii], t.classes)]++
	}
	if isPure(counts) ||
		(t.MinSamplesSplit > 0 && len(idx) < t.MinSamplesSplit) ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) {
		return makeLeaf(node, counts)
	}

	featIndices := make([]int, p)
	for j := range featIndices {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		rnd.Shuffle(p, func(a, b int) {
			featIndices[a], featIndices[b] = featIndices[b], featIndices[a]
		})
		featIndices = featIndices[:t.MaxFeatures]
	}

	parentImpurity := impurity(counts)
	best := splitResult{feature: -1}
	for _, f := range featIndices {
		r := t.bestSplitForFeature(X, y, idx, f, parentImpurity, impurity)
		if r.feature != -1 && r.gain > best.gain {
			best = r
		}
	}

	if best.feature == -1 || best.gain <= t.MinImpurityDecrease {
		return makeLeaf(node, counts)
	}

	node.feature = best.feature
	node.threshold = best.threshold
	node.left = t.buildNode(X, y, best.leftIdx, depth+1, p, impurity, rnd)
	node.right = t.buildNode(X, y, best.rightIdx, depth+1, p, impurity, rnd)
	return node
}

func makeLeaf(node *dtNode, counts []int) *dtNode {
	node.isLeaf = true
	node.probas = countsToProbas(counts)
	node.predIndex = argmaxInt(counts)
	return node
}

// bestSplitForFeature scans the midpoints between distinct sorted values
// of feature f for the split with the highest impurity gain.
func (t *DecisionTreeClassifier) bestSplitForFeature(X [][]float64, y []int, idx []int, f int, parentImpurity float64, impurity func([]int) float64) splitResult {
	result := splitResult{feature: -1}

	type pair struct {
		v float64
		i int
	}
	vals := make([]pair, len(idx))
	for k, ii := range idx {
		vals[k] = pair{X[ii][f], ii}
	}
	sort.Slice(vals, func(a, b int) bool { return vals[a].v < vals[b].v })

	nTotal := float64(len(idx))
	leftCounts := make([]int, len(t.classes))
	rightCounts := make([]int, len(t.classes))
	for _, pv := range vals {
		rightCounts[classIndex(y[pv.i], t.classes)]++
	}

	for s := 1; s < len(vals); s++ {
		ci := classIndex(y[vals[s-1].i], t.classes)
		leftCounts[ci]++
		rightCounts[ci]--
		if vals[s].v == vals[s-1].v {
			continue
		}
		if s < t.MinSamplesLeaf || len(vals)-s < t.MinSamplesLeaf {
			continue
		}
		weighted := float64(s)/nTotal*impurity(leftCounts) +
			float64(len(vals)-s)/nTotal*impurity(rightCounts)
		gain := parentImpurity - weighted
		if gain > result.gain {
			left := make([]int, s)
			right := make([]int, len(vals)-s)
			for k := 0; k < s; k++ {
				left[k] = vals[k].i
			}
			for k := s; k < len(vals); k++ {
				right[k-s] = vals[k].i
			}
			result = splitResult{
				gain:      gain,
				feature:   f,
				threshold: (vals[s-1].v + vals[s].v) / 2,
				leftIdx:   left,
				rightIdx:  right,
			}
		}
	}
	return result
}

func (t *DecisionTreeClassifier) predictProbaSingle(x []float64) []float64 {
	if t.root == nil {
		p := make([]float64, len(t.classes))
		for i := range p {
			p[i] = 1.0 / float64(len(p))
		}
		return p
	}
	node := t.root
	for !node.isLeaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.probas
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

func argmaxInt(counts []int) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}

func argmaxFloat(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}

// classIndex returns the index of label in the sorted classes slice.
func classIndex(label int, classes []int) int {
	lo, hi := 0, len(classes)
	for lo < hi {
		mid := (lo + hi) / 2
		if classes[mid] < label {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func uniqueSorted(y []int) []int {
	seen := make(map[int]struct{}, 8)
	out := make([]int, 0, 8)
	for _, lab := range y {
		if _, ok := seen[lab]; !ok {
			seen[lab] = struct{}{}
			out = append(out, lab)
		}
	}
	sort.Ints(out)
	return out
}
