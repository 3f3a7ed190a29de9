// Command sslearn benchmarks the semi-supervised engines against a
// labeled dataset: part of the training labels is masked, the chosen
// engine is fitted on the mixed data and scored on a held-out split.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aliciaolivaresgil/sslearn/pkg/dataset"
	"github.com/aliciaolivaresgil/sslearn/pkg/model"
	"github.com/aliciaolivaresgil/sslearn/pkg/wrapper"
)

type engine interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) ([]int, error)
}

type trainFlags struct {
	engine      string
	base        string
	target      int
	header      bool
	standardize bool
	testRatio   float64
	maskRatio   float64
	seed        int64
	verbose     bool
	baseSet     bool
}

func main() {
	flags := trainFlags{
		engine:    "tritraining",
		base:      "tree",
		target:    -1,
		testRatio: 0.25,
		maskRatio: 0.8,
	}

	root := &cobra.Command{
		Use:          "sslearn",
		Short:        "Semi-supervised classification toolkit",
		SilenceUsage: true,
	}

	train := &cobra.Command{
		Use:   "train <dataset>",
		Short: "Train an engine on a dataset and report held-out accuracy",
		Long: `Loads a KEEL .dat or plain .csv dataset, masks a fraction of the
training labels as unlabeled and fits the chosen semi-supervised engine
on the mixed data. Accuracy is reported on a held-out test split.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.baseSet = cmd.Flags().Changed("base")
			return runTrain(cmd, args[0], flags)
		},
	}
	train.Flags().StringVarP(&flags.engine, "engine", "e", flags.engine,
		"engine: setred, cotraining, committee, rasco, relrasco, tritraining, democratic, coforest")
	train.Flags().StringVarP(&flags.base, "base", "b", flags.base,
		"base learner: tree, knn, nb, logistic, bagging (democratic uses a fixed tree/nb/knn committee)")
	train.Flags().IntVar(&flags.target, "target", flags.target, "class column index (-1 = file default)")
	train.Flags().BoolVar(&flags.header, "header", false, "csv file carries a header row")
	train.Flags().BoolVar(&flags.standardize, "standardize", false, "standardize features to zero mean, unit variance")
	train.Flags().Float64Var(&flags.testRatio, "test-ratio", flags.testRatio, "held-out fraction")
	train.Flags().Float64Var(&flags.maskRatio, "mask", flags.maskRatio, "fraction of training labels to mask as unlabeled")
	train.Flags().Int64Var(&flags.seed, "seed", 0, "random seed")
	train.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "print per-iteration trace events")

	root.AddCommand(train)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTrain(cmd *cobra.Command, path string, flags trainFlags) error {
	X, y, classNames, err := loadDataset(path, flags)
	if err != nil {
		return err
	}
	dataset.ImputeMean(X)
	if flags.standardize {
		X = (&dataset.StandardScaler{}).FitTransform(X)
	}

	XTrain, yTrain, XTest, yTest := dataset.TrainTestSplit(X, y, flags.testRatio, flags.seed)
	yMasked := dataset.MaskLabels(yTrain, flags.maskRatio, flags.seed)
	labeled := 0
	for _, label := range yMasked {
		if label != dataset.Unlabeled {
			labeled++
		}
	}

	trace := &wrapper.TraceLog{}
	eng, err := buildEngine(flags, trace)
	if err != nil {
		return err
	}
	if err := eng.Fit(XTrain, yMasked); err != nil {
		return err
	}

	pred, err := eng.Predict(XTest)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dataset:   %s (%d instances, %d features)\n", filepath.Base(path), len(X), len(X[0]))
	if len(classNames) > 0 {
		fmt.Fprintf(out, "classes:   %v\n", classNames)
	}
	fmt.Fprintf(out, "training:  %d labeled + %d unlabeled\n", labeled, len(yMasked)-labeled)
	if flags.verbose {
		for _, ev := range trace.Events {
			fmt.Fprintf(out, "  [%s] iteration %d: added %v", ev.Engine, ev.Iteration, ev.Added)
			if ev.Warning != "" {
				fmt.Fprintf(out, " (%s)", ev.Warning)
			}
			fmt.Fprintln(out)
		}
	}
	fmt.Fprintf(out, "accuracy:  %.4f on %d held-out instances\n", model.Accuracy(yTest, pred), len(yTest))
	return nil
}

func loadDataset(path string, flags trainFlags) ([][]float64, []int, map[string]int, error) {
	opts := []dataset.LoadOption{dataset.WithTargetColumn(flags.target), dataset.WithHeader(flags.header)}
	if strings.EqualFold(filepath.Ext(path), ".dat") {
		return dataset.ReadKeel(path, opts...)
	}
	return dataset.ReadCSV(path, opts...)
}

func buildEngine(flags trainFlags, trace wrapper.Trace) (engine, error) {
	base, err := baseFactory(flags.base)
	if err != nil {
		return nil, err
	}
	switch flags.engine {
	case "setred":
		return wrapper.NewSetred(base,
			wrapper.WithSetredRandomState(flags.seed), wrapper.WithSetredTrace(trace)), nil
	case "cotraining":
		return wrapper.NewCoTraining(base,
			wrapper.WithCoTrainingRandomState(flags.seed), wrapper.WithCoTrainingTrace(trace)), nil
	case "committee":
		return wrapper.NewCoTrainingByCommittee(base,
			wrapper.WithCommitteeRandomState(flags.seed), wrapper.WithCommitteeTrace(trace)), nil
	case "rasco":
		return wrapper.NewRasco(base,
			wrapper.WithRascoRandomState(flags.seed), wrapper.WithRascoTrace(trace)), nil
	case "relrasco":
		return wrapper.NewRelRasco(base,
			wrapper.WithRascoRandomState(flags.seed), wrapper.WithRascoTrace(trace)), nil
	case "tritraining":
		return wrapper.NewTriTraining(base,
			wrapper.WithTriTrainingRandomState(flags.seed), wrapper.WithTriTrainingTrace(trace)), nil
	case "democratic":
		if flags.baseSet {
			return nil, fmt.Errorf("engine %q trains a fixed tree/nb/knn committee; --base does not apply", flags.engine)
		}
		return wrapper.NewDemocraticCoLearning([]model.Classifier{
			model.NewDecisionTree(model.WithTreeRandomState(flags.seed)),
			model.NewGaussianNB(),
			model.NewKNN(3),
		}, wrapper.WithDemocraticTrace(trace)), nil
	case "coforest":
		return wrapper.NewCoForest(base,
			wrapper.WithCoForestRandomState(flags.seed), wrapper.WithCoForestTrace(trace)), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", flags.engine)
	}
}

func baseFactory(name string) (model.Factory, error) {
	switch name {
	case "tree":
		return func() model.Classifier { return model.NewDecisionTree() }, nil
	case "knn":
		return func() model.Classifier { return model.NewKNN(3) }, nil
	case "nb":
		return func() model.Classifier { return model.NewGaussianNB() }, nil
	case "logistic":
		return func() model.Classifier { return model.NewLogisticRegression() }, nil
	case "bagging":
		return func() model.Classifier { return model.NewBagging() }, nil
	default:
		return nil, fmt.Errorf("unknown base learner %q", name)
	}
}
