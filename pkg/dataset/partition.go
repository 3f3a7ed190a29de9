// Package dataset provides the labeled/unlabeled partitioner, tabular
// file readers and split helpers shared by the semi-supervised engines.
package dataset

import "errors"

// Unlabeled is the sentinel label marking a row as unlabeled. Loaders
// guarantee no real class collides with it (see Secure).
const Unlabeled = -1

// ErrNoUnlabeled reports that the sentinel never appears in y: there is
// nothing to pseudo-label. Engines treat this as an immediate terminal
// state and fit on the labeled data alone.
var ErrNoUnlabeled = errors.New("dataset: no unlabeled instances in y")

// Partition splits combined (X, y) into (XLabel, yLabel, XUnlabel)
// using the Unlabeled sentinel. Row order is preserved within each
// part. The split is returned even alongside ErrNoUnlabeled.
func Partition(X [][]float64, y []int) (XLabel [][]float64, yLabel []int, XUnlabel [][]float64, err error) {
	for i, label := range y {
		if label == Unlabeled {
			XUnlabel = append(XUnlabel, X[i])
		} else {
			XLabel = append(XLabel, X[i])
			yLabel = append(yLabel, label)
		}
	}
	if len(XUnlabel) == 0 {
		err = ErrNoUnlabeled
	}
	return XLabel, yLabel, XUnlabel, err
}

// Secure remaps real classes so none collides with the Unlabeled
// sentinel: when any reported class equals -1 every class is shifted up
// by two, as the original loaders do. Labels already equal to the
// sentinel through the "unlabeled" token must be shifted beforehand,
// which the readers in this package handle.
func Secure(y []int) []int {
	collision := false
	for _, v := range y {
		if v == Unlabeled {
			collision = true
			break
		}
	}
	if !collision {
		return y
	}
	out := make([]int, len(y))
	for i, v := range y {
		out[i] = v + 2
	}
	return out
}
