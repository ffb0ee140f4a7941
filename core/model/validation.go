package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hydras3/hydras/pkg/errors"
)

// Dims returns the shape of X, treating nil and empty matrices as 0x0.
func Dims(X mat.Matrix) (rows, cols int) {
	if X == nil {
		return 0, 0
	}
	if d, ok := X.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return 0, 0
	}
	return X.Dims()
}

// ValidateFitInput checks training data: at least one row, one label per row,
// no empty labels and only finite feature values.
func ValidateFitInput(op string, X mat.Matrix, y []string) (nSamples, nFeatures int, err error) {
	nSamples, nFeatures = Dims(X)
	if nSamples == 0 || nFeatures == 0 {
		if len(y) != 0 && nSamples == 0 {
			return 0, 0, errors.NewDimensionError(op, len(y), 0, 0)
		}
		return 0, 0, errors.NewEmptyDataError(op)
	}
	if len(y) != nSamples {
		return 0, 0, errors.NewDimensionError(op, nSamples, len(y), 0)
	}
	for i, label := range y {
		if label == "" {
			return 0, 0, errors.NewInvalidInputErrorf(op, "empty label at row %d", i)
		}
	}
	if err := errors.CheckMatrix(op, X, nSamples, nFeatures); err != nil {
		return 0, 0, err
	}
	return nSamples, nFeatures, nil
}

// SortedClasses returns the distinct labels of y in ascending order.
func SortedClasses(y []string) []string {
	seen := make(map[string]struct{}, 4)
	classes := make([]string, 0, 4)
	for _, label := range y {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		classes = append(classes, label)
	}
	sort.Strings(classes)
	return classes
}
