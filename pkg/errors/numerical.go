package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// NonFiniteValueError reports a NaN or infinite feature value. Such values make
// every threshold comparison false and would silently route rows to the right
// child, so they are rejected as invalid input.
type NonFiniteValueError struct {
	Op    string
	Row   int
	Col   int
	Value float64
}

func (e *NonFiniteValueError) Error() string {
	return fmt.Sprintf("hydras: %s: non-finite value %v at row %d, feature %d", e.Op, e.Value, e.Row, e.Col)
}

// Is makes every NonFiniteValueError match ErrInvalidInput.
func (e *NonFiniteValueError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *NonFiniteValueError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("row", e.Row).
		Int("col", e.Col).
		Float64("value", e.Value).
		Str("type", "NonFiniteValueError")
}

// CheckScalar returns a NonFiniteValueError when value is NaN or ±Inf.
func CheckScalar(op string, value float64, row, col int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.WithStack(&NonFiniteValueError{Op: op, Row: row, Col: col, Value: value})
	}
	return nil
}

// CheckMatrix scans a matrix and reports the first non-finite value.
func CheckMatrix(op string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if err := CheckScalar(op, matrix.At(i, j), i, j); err != nil {
				return err
			}
		}
	}
	return nil
}
