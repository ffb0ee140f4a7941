// Package rules holds the normal operating ranges of the measured variables
// and the rule-based oracle that labels readings for training.
package rules

import (
	"github.com/hydras3/hydras/internal/sensor"
)

// Labels produced by the oracle and learnt by the forest.
const (
	LabelAnomalous = "Anomalous"
	LabelNormal    = "Normal"
)

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Deviation returns how far v lies outside the range as a percentage of the
// range span. Values inside the range deviate by 0.
func (r Range) Deviation(v float64) float64 {
	span := r.Max - r.Min
	if span == 0 {
		span = 1
	}
	switch {
	case v < r.Min:
		return (r.Min - v) / span * 100
	case v > r.Max:
		return (v - r.Max) / span * 100
	}
	return 0
}

// NormalRanges are indexed like sensor.FeatureNames.
var NormalRanges = [sensor.NumFeatures]Range{
	{Min: 7.0, Max: 8.8},
	{Min: 28, Max: 32},
	{Min: 5000, Max: 30000},
	{Min: 3.5, Max: 6.8},
	{Min: 40, Max: 250},
}

// Oracle labels a reading Anomalous when any variable is outside its range.
type Oracle struct {
	Ranges [sensor.NumFeatures]Range
}

// DefaultOracle uses NormalRanges.
func DefaultOracle() Oracle {
	return Oracle{Ranges: NormalRanges}
}

// OutOfRange reports whether any variable of r is outside its range.
func (o Oracle) OutOfRange(r sensor.Reading) bool {
	for i, rng := range o.Ranges {
		if !rng.Contains(r.Value(i)) {
			return true
		}
	}
	return false
}

func (o Oracle) Label(r sensor.Reading) string {
	if o.OutOfRange(r) {
		return LabelAnomalous
	}
	return LabelNormal
}

// Worst describes the variable furthest outside its range.
type Worst struct {
	Variable string  `json:"variable"`
	Value    float64 `json:"value"`
	Pct      float64 `json:"deviation_pct"`
}

// WorstVariable returns the variable with the largest out-of-range
// percentage. ok is false when every variable is within range. On equal
// percentages the variable earlier in feature order wins.
func (o Oracle) WorstVariable(r sensor.Reading) (w Worst, ok bool) {
	for i, rng := range o.Ranges {
		v := r.Value(i)
		pct := rng.Deviation(v)
		if pct > 0 && (!ok || pct > w.Pct) {
			w = Worst{Variable: sensor.FeatureNames[i], Value: v, Pct: pct}
			ok = true
		}
	}
	return w, ok
}

// Label labels r with the default oracle.
func Label(r sensor.Reading) string {
	return DefaultOracle().Label(r)
}

// WorstVariable applies the default oracle.
func WorstVariable(r sensor.Reading) (Worst, bool) {
	return DefaultOracle().WorstVariable(r)
}
