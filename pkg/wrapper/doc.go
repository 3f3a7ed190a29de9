// Package wrapper implements semi-supervised wrapper classifiers: they
// grow a small labeled dataset by iteratively trusting the predictions
// of one or more base classifiers on unlabeled data, each under its own
// statistical or agreement-based acceptance rule.
//
// Engines:
//
//   - Setred — self-training with a statistical edit step over a
//     nearest-neighbor graph.
//   - CoTraining — two classifiers over two feature views, balanced
//     positive/negative pseudo-labeling (binary only).
//   - CoTrainingByCommittee — one ensemble classifier, confidence- and
//     class-proportion-gated pseudo-labeling.
//   - Rasco / RelRasco — K classifiers over random (or relevance-biased)
//     feature subspaces.
//   - TriTraining — exactly three classifiers, mutual supervision gated
//     by a PAC-style error-bound comparison.
//   - DemocraticCoLearning — N heterogeneous classifiers with
//     confidence-interval-weighted voting.
//   - CoForest — a random forest whose trees trade pseudo-labels under
//     an error-times-weight improvement gate.
//
// Every engine takes a model.Factory so learners are always independent
// clones, accepts a seed for reproducible runs, and reports per
// iteration through an optional Trace sink. Unlabeled rows are marked
// with the dataset.Unlabeled sentinel in y.
package wrapper
