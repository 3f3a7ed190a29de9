package model

import (
	"errors"
	"math"
)

// GaussianNB is a naive Bayes classifier with per-feature Gaussian
// likelihoods and empirical class priors.
type GaussianNB struct {
	classes []int
	priors  []float64   // log prior per class
	means   [][]float64 // [class][feature]
	vars    [][]float64 // [class][feature], floored
}

// varFloor keeps degenerate zero-variance features from collapsing the
// likelihood.
const varFloor = 1e-9

// NewGaussianNB creates an unfitted Gaussian naive Bayes classifier.
func NewGaussianNB() *GaussianNB { return &GaussianNB{} }

// Fit estimates class priors and per-class feature means/variances.
func (g *GaussianNB) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("bayes: empty X")
	}
	if len(X) != len(y) {
		return errors.New("bayes: X and y length mismatch")
	}
	p := len(X[0])
	g.classes = uniqueSorted(y)
	k := len(g.classes)

	counts := make([]float64, k)
	g.means = make([][]float64, k)
	g.vars = make([][]float64, k)
	sums := make([][]float64, k)
	sqSums := make([][]float64, k)
	for c := 0; c < k; c++ {
		sums[c] = make([]float64, p)
		sqSums[c] = make([]float64, p)
	}
	for i, row := range X {
		c := classIndex(y[i], g.classes)
		counts[c]++
		for j, v := range row {
			sums[c][j] += v
			sqSums[c][j] += v * v
		}
	}

	g.priors = make([]float64, k)
	for c := 0; c < k; c++ {
		g.priors[c] = math.Log(counts[c] / float64(len(y)))
		g.means[c] = make([]float64, p)
		g.vars[c] = make([]float64, p)
		for j := 0; j < p; j++ {
			mean := sums[c][j] / counts[c]
			g.means[c][j] = mean
			v := sqSums[c][j]/counts[c] - mean*mean
			if v < varFloor {
				v = varFloor
			}
			g.vars[c][j] = v
		}
	}
	return nil
}

// Predict returns the maximum-posterior class for each row.
func (g *GaussianNB) Predict(X [][]float64) []int {
	probas := g.PredictProba(X)
	out := make([]int, len(X))
	for i, row := range probas {
		out[i] = g.classes[argmaxFloat(row)]
	}
	return out
}

// PredictProba returns normalized class posteriors per row.
func (g *GaussianNB) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		logp := make([]float64, len(g.classes))
		for c := range g.classes {
			lp := g.priors[c]
			for j, v := range row {
				d := v - g.means[c][j]
				lp += -0.5*math.Log(2*math.Pi*g.vars[c][j]) - d*d/(2*g.vars[c][j])
			}
			logp[c] = lp
		}
		// log-sum-exp normalization
		maxLog := logp[argmaxFloat(logp)]
		sum := 0.0
		for c := range logp {
			logp[c] = math.Exp(logp[c] - maxLog)
			sum += logp[c]
		}
		for c := range logp {
			logp[c] /= sum
		}
		out[i] = logp
	}
	return out
}

// Classes returns the sorted class labels seen during Fit.
func (g *GaussianNB) Classes() []int { return g.classes }
