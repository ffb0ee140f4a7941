// Package errors provides the structured error and warning types shared by the
// classifiers and the monitoring service. Every constructor attaches a stack
// trace through cockroachdb/errors, and the structured types can be written to
// zerolog as objects.
//
// The taxonomy is small on purpose:
//   - invalid input (empty data, length or width mismatch, bad labels, bad
//     hyperparameters) matches ErrInvalidInput through Is;
//   - NotFittedError is returned by estimators that refuse to predict before Fit;
//   - PanicError (see recovery.go) carries a recovered panic.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Warnings
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("hydras-warning: %v\n", w)
	}
	// zerologWarnFunc is installed by the binary to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the fallback warning handler used when no
// zerolog function is installed.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs the structured warning sink. Passing nil restores
// the fallback handler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn reports a non-fatal condition.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// HyperparameterWarning is raised when a hyperparameter had to be adjusted to
// fit the training data, for example a feature subset larger than the number
// of features.
type HyperparameterWarning struct {
	Param     string
	Requested interface{}
	Used      interface{}
	Reason    string
}

func (w *HyperparameterWarning) Error() string {
	return fmt.Sprintf("hyperparameter %s=%v adjusted to %v: %s", w.Param, w.Requested, w.Used, w.Reason)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (w *HyperparameterWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("param", w.Param).
		Interface("requested", w.Requested).
		Interface("used", w.Used).
		Str("reason", w.Reason).
		Str("type", "HyperparameterWarning")
}

// NewHyperparameterWarning creates a HyperparameterWarning.
func NewHyperparameterWarning(param string, requested, used interface{}, reason string) *HyperparameterWarning {
	return &HyperparameterWarning{Param: param, Requested: requested, Used: used, Reason: reason}
}

// ===========================================================================
//
//	Structured errors
//
// ===========================================================================

// NotFittedError is returned when Predict is called on an estimator that
// requires a prior Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("hydras: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError reports a shape mismatch between inputs.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("hydras: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

// Is makes every DimensionError match ErrInvalidInput.
func (e *DimensionError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError reports a hyperparameter outside its accepted range.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("hydras: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// InvalidInputError reports training or prediction data that cannot be used:
// an empty dataset, ragged rows, an empty label.
type InvalidInputError struct {
	Op      string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("hydras: %s: invalid input: %s", e.Op, e.Message)
}

// Is makes every InvalidInputError match ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *InvalidInputError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("message", e.Message).
		Str("type", "InvalidInputError")
}

// NewInvalidInputError creates an InvalidInputError with a stack trace.
func NewInvalidInputError(op, message string) error {
	err := &InvalidInputError{Op: op, Message: message}
	return errors.WithStack(err)
}

// NewInvalidInputErrorf is NewInvalidInputError with a format string.
func NewInvalidInputErrorf(op, format string, args ...interface{}) error {
	return NewInvalidInputError(op, fmt.Sprintf(format, args...))
}

// ModelError is a general failure inside an estimator that wraps a cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hydras: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("hydras: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// Mark makes errors.Is(err, reference) true without changing err's message.
func Mark(err, reference error) error {
	return errors.Mark(err, reference)
}

// NewEmptyDataError is an InvalidInputError that also matches ErrEmptyData.
func NewEmptyDataError(op string) error {
	return errors.Mark(NewInvalidInputError(op, "empty dataset"), ErrEmptyData)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Sentinels
//
// ===========================================================================

var (
	// ErrInvalidInput is matched by every input and hyperparameter error.
	ErrInvalidInput = New("invalid input")

	// ErrEmptyData is returned when a dataset has no rows.
	ErrEmptyData = New("empty data")
)
