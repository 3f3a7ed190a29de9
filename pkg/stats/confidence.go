package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// IntervalMethod selects the binomial confidence-interval formulation
// used to turn an observed accuracy into a vote weight.
type IntervalMethod string

const (
	// Bernoulli is the normal-approximation (Wald) interval.
	Bernoulli IntervalMethod = "bernoulli"
	// Wilson is the Wilson score interval, better behaved near 0 and 1.
	Wilson IntervalMethod = "wilson"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// ProportionInterval returns the (lower, upper) confidence interval for
// a proportion p observed over n trials at confidence level alpha.
// Bounds are clipped to [0, 1]. An unknown method falls back to
// Bernoulli.
func ProportionInterval(p float64, n int, method IntervalMethod, alpha float64) (float64, float64) {
	if n == 0 {
		return 0, 1
	}
	z := stdNormal.Quantile(1 - (1-alpha)/2)
	nf := float64(n)

	var lo, hi float64
	switch method {
	case Wilson:
		denom := 1 + z*z/nf
		center := (p + z*z/(2*nf)) / denom
		margin := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
		lo, hi = center-margin, center+margin
	default:
		margin := z * math.Sqrt(p*(1-p)/nf)
		lo, hi = p-margin, p+margin
	}
	return clip01(lo), clip01(hi)
}

// NormalSurvival returns P(Z > x) for Z ~ N(mu, sigma). A zero sigma
// degenerates to zero so the caller's rejection test stays well defined.
func NormalSurvival(x, mu, sigma float64) float64 {
	if sigma == 0 {
		return 0
	}
	return distuv.Normal{Mu: mu, Sigma: sigma}.Survival(x)
}

// ChoiceWithProportion selects the indices of the most confident
// candidates per class, sized by the class's prior share of the pool
// minus extra (the instances already guaranteed by the per-class floor).
//
// confidences[i] is the top probability of candidate i, predicted[i] its
// proposed class.
func ChoiceWithProportion(confidences []float64, predicted []int, prior map[int]float64, extra int) []int {
	n := len(confidences)
	chosen := make([]int, 0, n)
	byClass := make(map[int][]int)
	for i, c := range predicted {
		byClass[c] = append(byClass[c], i)
	}
	for c, members := range byClass {
		take := int(math.Ceil(prior[c]*float64(n))) - extra
		if take <= 0 {
			continue
		}
		if take > len(members) {
			take = len(members)
		}
		sort.SliceStable(members, func(a, b int) bool {
			return confidences[members[a]] > confidences[members[b]]
		})
		chosen = append(chosen, members[:take]...)
	}
	sort.Ints(chosen)
	return chosen
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
