// Package model defines the estimator contracts shared by the classifiers and
// the fitted-state bookkeeping they embed.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter learns from a feature matrix and one string label per row.
type Fitter interface {
	Fit(X mat.Matrix, y []string) error
}

// Predictor returns one label per row of X.
type Predictor interface {
	Predict(X mat.Matrix) ([]string, error)
}

// Scorer returns the mean accuracy of Predict(X) against y.
type Scorer interface {
	Score(X mat.Matrix, y []string) (float64, error)
}

// Classifier is a fitted-or-fittable label classifier.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	IsFitted() bool

	// Classes returns the sorted label set seen by the last fit.
	Classes() []string
}

type ParameterGetter interface {
	GetParams() map[string]interface{}
}

type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// RowsToDense validates a row-major table and copies it into a dense matrix.
// It returns nil for an empty table.
func RowsToDense(op string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	width := len(rows[0])
	data := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, raggedRowError(op, i, width, len(row))
		}
		data = append(data, row...)
	}
	if width == 0 {
		return nil, raggedRowError(op, 0, 1, 0)
	}
	return mat.NewDense(len(rows), width, data), nil
}
