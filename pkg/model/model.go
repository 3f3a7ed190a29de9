package model

// Classifier is the capability contract every semi-supervised engine
// consumes: a trainable model that exposes hard predictions, per-class
// probabilities and the ordered class list it was fitted on.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
	// PredictProba returns one probability row per input row; each row
	// sums to 1 and its columns follow the order of Classes().
	PredictProba(X [][]float64) [][]float64
	// Classes returns the class labels observed during Fit, in a stable
	// order. It is nil before the first successful Fit.
	Classes() []int
}

// Factory builds a fresh, unfitted classifier. Engines that need
// several learners call the factory once per slot, so no configuration
// object is ever shared between slots.
type Factory func() Classifier

// Seeded is implemented by classifiers whose randomness can be steered.
// Engines reseed every cloned learner from their own random stream to
// keep runs reproducible.
type Seeded interface {
	SetRandomState(seed int64)
}
