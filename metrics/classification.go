// Package metrics scores classifier output, either as string labels or as
// numeric class vectors.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/hydras3/hydras/pkg/errors"
)

// Accuracy returns the fraction of positions where yPred equals yTrue.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError is 1 - Accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// AUC computes the area under the ROC curve for binary labels {0, 1} and
// real-valued scores, using the rank-sum formulation with average ranks for
// tied scores. When only one class is present AUC is undefined and 0.5 is
// returned.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkVectors("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}

	labels := make([]float64, n)
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = yTrue.AtVec(i)
		scores[i] = yScore.AtVec(i)
		if labels[i] != 0 && labels[i] != 1 {
			return 0, errors.NewInvalidInputErrorf("AUC", "label %v at index %d is not binary", labels[i], i)
		}
	}

	nPos := floats.Sum(labels)
	nNeg := float64(n) - nPos
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	rankSum := 0.0
	for i := 0; i < n; {
		j := i
		for j+1 < n && scores[order[j+1]] == scores[order[i]] {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if labels[order[k]] == 1 {
				rankSum += avgRank
			}
		}
		i = j + 1
	}

	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg), nil
}

func checkVectors(op string, a, b *mat.VecDense) (int, error) {
	if a == nil || b == nil || a.IsEmpty() || b.IsEmpty() {
		return 0, errors.NewInvalidInputError(op, "empty input")
	}
	if a.Len() != b.Len() {
		return 0, errors.NewDimensionError(op, a.Len(), b.Len(), 0)
	}
	return a.Len(), nil
}
