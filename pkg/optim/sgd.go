// Package optim holds the gradient-step optimizers used by the
// iteratively trained classifiers.
package optim

// SGD is plain stochastic gradient descent with optional momentum.
type SGD struct {
	LearningRate float64
	Momentum     float64

	velocity []float64
}

// NewSGD returns an optimizer with the given learning rate and no
// momentum.
func NewSGD(lr float64) *SGD { return &SGD{LearningRate: lr} }

// NewSGDMomentum returns an optimizer with classical momentum.
func NewSGDMomentum(lr, momentum float64) *SGD {
	return &SGD{LearningRate: lr, Momentum: momentum}
}

// Step updates weights in place from the gradient. The velocity buffer
// is lazily sized to the weight vector, so one SGD value serves exactly
// one parameter vector.
func (o *SGD) Step(weights, grads []float64) {
	if o.Momentum == 0 {
		for i := range weights {
			weights[i] -= o.LearningRate * grads[i]
		}
		return
	}
	if len(o.velocity) != len(weights) {
		o.velocity = make([]float64, len(weights))
	}
	for i := range weights {
		o.velocity[i] = o.Momentum*o.velocity[i] - o.LearningRate*grads[i]
		weights[i] += o.velocity[i]
	}
}
