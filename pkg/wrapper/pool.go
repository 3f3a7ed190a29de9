package wrapper

import (
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/aliciaolivaresgil/sslearn/pkg/model"
)

// LearnerPool owns a fixed-size collection of independently cloned
// classifier slots and runs their fits in parallel. Slots never share
// state; all acceptance bookkeeping stays with the calling engine.
type LearnerPool struct {
	learners []model.Classifier
}

// NewLearnerPool clones n learners from the factory, seeding each from
// the engine's random stream so runs stay reproducible.
func NewLearnerPool(base model.Factory, n int, rng *rand.Rand) *LearnerPool {
	learners := make([]model.Classifier, n)
	for i := range learners {
		learners[i] = cloneSeeded(base, rng)
	}
	return &LearnerPool{learners: learners}
}

// Learners returns the pool's slots.
func (p *LearnerPool) Learners() []model.Classifier { return p.learners }

// Len returns the number of slots.
func (p *LearnerPool) Len() int { return len(p.learners) }

// FitViews fits slot i on its own projection views[i] of the shared
// labels, all slots in parallel.
func (p *LearnerPool) FitViews(views [][][]float64, y []int) error {
	var g errgroup.Group
	for i := range p.learners {
		i := i
		g.Go(func() error { return p.learners[i].Fit(views[i], y) })
	}
	return g.Wait()
}

// Run executes the given independent tasks in parallel and returns the
// first error.
func (p *LearnerPool) Run(tasks []func() error) error {
	var g errgroup.Group
	for _, t := range tasks {
		t := t
		g.Go(t)
	}
	return g.Wait()
}
