package wrapper_test

import (
	"fmt"

	"github.com/aliciaolivaresgil/sslearn/pkg/model"
	"github.com/aliciaolivaresgil/sslearn/pkg/wrapper"
)

// Labels use -1 (dataset.Unlabeled) for the rows the engine should
// pseudo-label on its own.
func ExampleTriTraining() {
	X := [][]float64{
		{0.0, 0.1}, {0.2, 0.0}, {0.1, 0.2}, {0.3, 0.1},
		{9.8, 10.0}, {10.1, 9.9}, {9.9, 10.2}, {10.0, 10.1},
		{0.1, 0.1}, {0.2, 0.2}, {9.9, 9.8}, {10.2, 10.0},
	}
	y := []int{0, 0, -1, -1, 1, 1, -1, -1, -1, -1, -1, -1}

	tt := wrapper.NewTriTraining(func() model.Classifier {
		return model.NewDecisionTree()
	})
	if err := tt.Fit(X, y); err != nil {
		fmt.Println(err)
		return
	}

	pred, _ := tt.Predict([][]float64{{0.5, 0.5}, {9.5, 9.5}})
	fmt.Println(pred)
	// Output: [0 1]
}
