package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hydras3/hydras/pkg/errors"
)

// AccuracyScore returns the fraction of labels predicted exactly.
func AccuracyScore(yTrue, yPred []string) (float64, error) {
	if err := checkLabels("AccuracyScore", yTrue, yPred); err != nil {
		return 0, err
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// BinaryReport holds one-vs-rest scores for a positive label.
type BinaryReport struct {
	Positive       string
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1             float64
}

// PrecisionRecallF1 scores predictions against yTrue treating positive as the
// positive class and every other label as negative. Undefined ratios are 0.
func PrecisionRecallF1(yTrue, yPred []string, positive string) (BinaryReport, error) {
	report := BinaryReport{Positive: positive}
	if err := checkLabels("PrecisionRecallF1", yTrue, yPred); err != nil {
		return report, err
	}
	for i := range yTrue {
		truePos, predPos := yTrue[i] == positive, yPred[i] == positive
		switch {
		case truePos && predPos:
			report.TruePositives++
		case predPos:
			report.FalsePositives++
		case truePos:
			report.FalseNegatives++
		}
	}
	if d := report.TruePositives + report.FalsePositives; d > 0 {
		report.Precision = float64(report.TruePositives) / float64(d)
	}
	if d := report.TruePositives + report.FalseNegatives; d > 0 {
		report.Recall = float64(report.TruePositives) / float64(d)
	}
	if s := report.Precision + report.Recall; s > 0 {
		report.F1 = 2 * report.Precision * report.Recall / s
	}
	return report, nil
}

// ConfusionMatrix counts (true, predicted) pairs. Rows and columns follow the
// returned label order, which is the sorted union of both inputs.
func ConfusionMatrix(yTrue, yPred []string) (*mat.Dense, []string, error) {
	if err := checkLabels("ConfusionMatrix", yTrue, yPred); err != nil {
		return nil, nil, err
	}
	index := make(map[string]int)
	for _, set := range [][]string{yTrue, yPred} {
		for _, l := range set {
			index[l] = 0
		}
	}
	labels := make([]string, 0, len(index))
	for l := range index {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for i, l := range labels {
		index[l] = i
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := range yTrue {
		r, c := index[yTrue[i]], index[yPred[i]]
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, labels, nil
}

func checkLabels(op string, yTrue, yPred []string) error {
	if len(yTrue) == 0 {
		return errors.NewInvalidInputError(op, "empty input")
	}
	if len(yTrue) != len(yPred) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}
