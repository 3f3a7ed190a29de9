package model

// Accuracy returns the fraction of matching labels.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// Score returns the mean accuracy of clf on (X, y).
func Score(clf Classifier, X [][]float64, y []int) float64 {
	return Accuracy(y, clf.Predict(X))
}
