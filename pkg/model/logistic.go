package model

import (
	"errors"
	"math"
	"math/rand"
	"sync"

	"github.com/aliciaolivaresgil/sslearn/pkg/optim"
)

// LogisticRegression is a one-vs-rest logistic classifier trained with
// full-batch gradient descent. Two classes use a single sigmoid head;
// more classes train one head per class and normalize the scores.
type LogisticRegression struct {
	LearningRate float64 // 0.1
	Epochs       int     // 200
	Momentum     float64
	RandomState  int64

	weights [][]float64 // one vector per head, bias last
	classes []int
}

// LogisticOption is a functional config for LogisticRegression.
type LogisticOption func(*LogisticRegression)

func WithLearningRate(lr float64) LogisticOption {
	return func(m *LogisticRegression) { m.LearningRate = lr }
}
func WithEpochs(n int) LogisticOption { return func(m *LogisticRegression) { m.Epochs = n } }
func WithMomentum(momentum float64) LogisticOption {
	return func(m *LogisticRegression) { m.Momentum = momentum }
}
func WithLogisticRandomState(seed int64) LogisticOption {
	return func(m *LogisticRegression) { m.RandomState = seed }
}

// NewLogisticRegression creates an untrained model.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	m := &LogisticRegression{LearningRate: 0.1, Epochs: 200}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SetRandomState reseeds the weight initialization.
func (m *LogisticRegression) SetRandomState(seed int64) { m.RandomState = seed }

// Fit trains one sigmoid head per class (a single head for the binary
// case) on the cross-entropy gradient.
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("model: X and y must be non-empty and the same length")
	}
	m.classes = uniqueSorted(y)
	if len(m.classes) < 2 {
		return errors.New("model: need at least two classes")
	}
	nFeatures := len(X[0])
	rng := rand.New(rand.NewSource(m.RandomState))

	heads := len(m.classes)
	if heads == 2 {
		heads = 1
	}
	m.weights = make([][]float64, heads)
	targets := make([][]float64, heads)
	for h := range m.weights {
		w := make([]float64, nFeatures+1)
		for i := range w {
			w[i] = rng.NormFloat64() * 0.01 // break symmetry
		}
		m.weights[h] = w

		positive := m.classes[h+len(m.classes)-heads] // classes[1] when binary
		t := make([]float64, len(y))
		for i, label := range y {
			if label == positive {
				t[i] = 1
			}
		}
		targets[h] = t
	}

	var wg sync.WaitGroup
	for h := range m.weights {
		wg.Add(1)
		go func(w, target []float64) {
			defer wg.Done()
			opt := optim.NewSGDMomentum(m.LearningRate, m.Momentum)
			grads := make([]float64, len(w))
			for ep := 0; ep < m.Epochs; ep++ {
				for i := range grads {
					grads[i] = 0
				}
				for i, row := range X {
					d := sigmoid(dotBias(w, row)) - target[i]
					for j, v := range row {
						grads[j] += d * v / float64(len(X))
					}
					grads[len(w)-1] += d / float64(len(X))
				}
				opt.Step(w, grads)
			}
		}(m.weights[h], targets[h])
	}
	wg.Wait()
	return nil
}

// Predict returns the argmax class per row.
func (m *LogisticRegression) Predict(X [][]float64) []int {
	probas := m.PredictProba(X)
	out := make([]int, len(probas))
	for i, row := range probas {
		out[i] = m.classes[argmaxFloat(row)]
	}
	return out
}

// PredictProba returns normalized per-class scores; columns follow
// Classes().
func (m *LogisticRegression) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		probas := make([]float64, len(m.classes))
		if len(m.weights) == 1 {
			p := sigmoid(dotBias(m.weights[0], row))
			probas[0], probas[1] = 1-p, p
		} else {
			total := 0.0
			for h, w := range m.weights {
				probas[h] = sigmoid(dotBias(w, row))
				total += probas[h]
			}
			if total == 0 {
				for h := range probas {
					probas[h] = 1 / float64(len(probas))
				}
			} else {
				for h := range probas {
					probas[h] /= total
				}
			}
		}
		out[i] = probas
	}
	return out
}

// Classes returns the sorted class labels seen during Fit.
func (m *LogisticRegression) Classes() []int { return m.classes }

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

// dotBias applies the weight vector whose last entry is the bias.
func dotBias(w, row []float64) float64 {
	z := w[len(w)-1]
	for j, v := range row {
		z += w[j] * v
	}
	return z
}
