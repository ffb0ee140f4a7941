// Package drift detects concept drift in a stream of classifier outcomes.
package drift

import (
	"math"
	"sync"
)

// DDM is the Drift Detection Method of Gama, Medas, Castillo and Rodrigues
// (2004), "Learning with Drift Detection". It watches the error rate p of a
// prediction stream and its binomial deviation s = sqrt(p(1-p)/n), and
// compares p+s against the lowest p_min+s_min seen so far.
type DDM struct {
	minNumInstances int
	warningLevel    float64
	outControlLevel float64

	numInstances int
	numErrors    int
	errorRate    float64
	stdDev       float64

	minErrorRate float64
	minStdDev    float64

	warningDetected bool
	driftDetected   bool
	drifts          int

	mu sync.RWMutex
}

// Result is the outcome of one Update.
type Result struct {
	WarningDetected bool
	DriftDetected   bool
	ErrorRate       float64
	// ConfidenceLevel is (p+s)/(p_min+s_min); 1 means no degradation.
	ConfidenceLevel float64
}

// Statistics snapshots the detector state.
type Statistics struct {
	NumInstances    int     `json:"instances"`
	NumErrors       int     `json:"errors"`
	ErrorRate       float64 `json:"error_rate"`
	WarningDetected bool    `json:"warning"`
	DriftDetected   bool    `json:"drift"`
	Drifts          int     `json:"drifts"`
}

// Option configures a DDM.
type Option func(*DDM)

// WithMinNumInstances sets how many outcomes are seen before any detection.
func WithMinNumInstances(n int) Option {
	return func(d *DDM) { d.minNumInstances = n }
}

// WithWarningLevel sets the warning multiplier of s_min.
func WithWarningLevel(level float64) Option {
	return func(d *DDM) { d.warningLevel = level }
}

// WithOutControlLevel sets the drift multiplier of s_min.
func WithOutControlLevel(level float64) Option {
	return func(d *DDM) { d.outControlLevel = level }
}

// NewDDM creates a detector with the published defaults: 30 instances,
// warning at 2 s_min and drift at 3 s_min.
func NewDDM(options ...Option) *DDM {
	d := &DDM{
		minNumInstances: 30,
		warningLevel:    2.0,
		outControlLevel: 3.0,
	}
	for _, opt := range options {
		opt(d)
	}
	d.reset()
	return d
}

// Update feeds one outcome. On drift the statistics restart from zero, so
// the next detection needs a fresh minimum.
func (d *DDM) Update(correct bool) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.numInstances++
	if !correct {
		d.numErrors++
	}

	if d.numInstances < d.minNumInstances {
		return Result{}
	}

	n := float64(d.numInstances)
	d.errorRate = float64(d.numErrors) / n
	d.stdDev = math.Sqrt(d.errorRate * (1 - d.errorRate) / n)

	level := d.errorRate + d.stdDev
	if level < d.minErrorRate+d.minStdDev {
		d.minErrorRate = d.errorRate
		d.minStdDev = d.stdDev
	}

	res := Result{ErrorRate: d.errorRate, ConfidenceLevel: 1}
	if base := d.minErrorRate + d.minStdDev; base > 0 {
		res.ConfidenceLevel = level / base
	}

	d.warningDetected = level > d.minErrorRate+d.warningLevel*d.minStdDev
	res.WarningDetected = d.warningDetected

	if level > d.minErrorRate+d.outControlLevel*d.minStdDev {
		res.DriftDetected = true
		d.drifts++
		d.reset()
		d.driftDetected = true
		return res
	}
	d.driftDetected = false
	return res
}

// Reset clears the statistics and the drift count.
func (d *DDM) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
	d.drifts = 0
}

func (d *DDM) reset() {
	d.numInstances = 0
	d.numErrors = 0
	d.errorRate = 0
	d.stdDev = 0
	d.minErrorRate = math.Inf(1)
	d.minStdDev = math.Inf(1)
	d.warningDetected = false
	d.driftDetected = false
}

// Statistics returns the current state.
func (d *DDM) Statistics() Statistics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Statistics{
		NumInstances:    d.numInstances,
		NumErrors:       d.numErrors,
		ErrorRate:       d.errorRate,
		WarningDetected: d.warningDetected,
		DriftDetected:   d.driftDetected,
		Drifts:          d.drifts,
	}
}
