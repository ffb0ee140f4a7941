package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hydras3/hydras/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("DecisionTreeClassifier", "Predict")
	var nfErr *errors.NotFittedError
	require.True(t, errors.As(err, &nfErr))
	assert.Equal(t, "Predict", nfErr.Method)

	s.SetFitted(5, 120)
	assert.True(t, s.IsFitted())
	assert.NoError(t, s.RequireFitted("DecisionTreeClassifier", "Predict"))
	assert.NoError(t, s.RequireFeatures("Predict", 5))

	err = s.RequireFeatures("Predict", 4)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	assert.Equal(t, ModelState{Fitted: true, NFeatures: 5, NSamples: 120}, s.GetState())

	s.Reset()
	nf, ns := s.GetDimensions()
	assert.False(t, s.IsFitted())
	assert.Zero(t, nf)
	assert.Zero(t, ns)
}

func TestRowsToDense(t *testing.T) {
	m, err := RowsToDense("Fit", [][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 4.0, m.At(1, 1))

	m, err = RowsToDense("Fit", nil)
	assert.NoError(t, err)
	assert.Nil(t, m)

	_, err = RowsToDense("Fit", [][]float64{{1, 2}, {3}})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = RowsToDense("Fit", [][]float64{{}, {}})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestValidateFitInput(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{0, 1, 2, 3, 4, 5})

	n, p, err := ValidateFitInput("Fit", X, []string{"A", "B", "A"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, p)

	tests := []struct {
		name string
		X    mat.Matrix
		y    []string
	}{
		{"nil matrix", nil, nil},
		{"empty dense", &mat.Dense{}, []string{}},
		{"typed nil dense", (*mat.Dense)(nil), nil},
		{"labels without rows", nil, []string{"A"}},
		{"length mismatch", X, []string{"A", "B"}},
		{"empty label", X, []string{"A", "", "B"}},
		{"nan feature", mat.NewDense(1, 1, []float64{math.NaN()}), []string{"A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ValidateFitInput("Fit", tt.X, tt.y)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput), "got %v", err)
		})
	}

	_, _, err = ValidateFitInput("Fit", nil, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestSortedClasses(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, SortedClasses([]string{"C", "A", "B", "A", "C"}))
	assert.Empty(t, SortedClasses(nil))
}
