package stats

import "math"

// relevanceBins is the equal-width discretization used when estimating
// feature/label mutual information.
const relevanceBins = 10

// MutualInformation estimates the mutual information between each
// feature column of X and the labels y, discretizing each feature into
// equal-width bins. Constant features score zero.
func MutualInformation(X [][]float64, y []int) []float64 {
	if len(X) == 0 {
		return nil
	}
	p := len(X[0])
	n := float64(len(X))
	out := make([]float64, p)

	labelCounts := make(map[int]float64)
	for _, c := range y {
		labelCounts[c]++
	}

	col := make([]float64, len(X))
	for j := 0; j < p; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		lo, hi := MinMax(col)
		if hi == lo {
			continue
		}
		width := (hi - lo) / relevanceBins

		binCounts := make(map[int]float64)
		jointCounts := make(map[[2]int]float64)
		for i, v := range col {
			b := int((v - lo) / width)
			if b >= relevanceBins {
				b = relevanceBins - 1
			}
			binCounts[b]++
			jointCounts[[2]int{b, y[i]}]++
		}

		mi := 0.0
		for key, joint := range jointCounts {
			pxy := joint / n
			px := binCounts[key[0]] / n
			py := labelCounts[key[1]] / n
			mi += pxy * math.Log(pxy/(px*py))
		}
		if mi < 0 {
			mi = 0
		}
		out[j] = mi
	}
	return out
}
