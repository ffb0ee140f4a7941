// Package monitor runs the reading/classification loop: it trains the forest
// from the stored dataset, classifies a simulated reading from the selected
// buoy on every tick, raises alerts for anomalous readings, and keeps the
// recent history served by the HTTP API.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/mat"

	"github.com/hydras3/hydras/internal/dataset"
	"github.com/hydras3/hydras/internal/observability"
	"github.com/hydras3/hydras/internal/rules"
	"github.com/hydras3/hydras/internal/sensor"
	"github.com/hydras3/hydras/sklearn/drift"
	"github.com/hydras3/hydras/sklearn/ensemble"
)

// History sizes kept in memory.
const (
	MaxReadings = 100
	MaxAlerts   = 50
	// evalWindow bounds the predictions compared against the oracle.
	evalWindow = 500
)

// ErrModelNotReady is reported by CheckReadiness until the forest is fitted.
var ErrModelNotReady = errors.New("model not fitted")

// Forest is the classifier driven by the monitor.
type Forest interface {
	FitRows(X [][]float64, y []string) error
	PredictRows(X [][]float64) ([]string, error)
	VoteShares(X mat.Matrix) (*mat.Dense, error)
	Classes() []string
	IsFitted() bool
	Stats() ensemble.Stats
}

// Sink receives every classified reading.
type Sink interface {
	Publish(ctx context.Context, readings ...sensor.ClassifiedReading) error
}

type nopSink struct{}

func (nopSink) Publish(context.Context, ...sensor.ClassifiedReading) error { return nil }

// Alert records an anomalous reading and the variable furthest out of range.
type Alert struct {
	BuoyID       int       `json:"buoy_id"`
	Timestamp    time.Time `json:"timestamp"`
	Day          string    `json:"day"`
	Variable     string    `json:"variable"`
	ValueRaw     float64   `json:"value_raw"`
	DeviationPct float64   `json:"deviation_pct"`
}

// Monitor is safe for concurrent use.
type Monitor struct {
	forest  Forest
	sim     *sensor.Simulator
	oracle  rules.Oracle
	store   dataset.Store
	sink    Sink
	clock   clockwork.Clock
	drift   *drift.DDM
	metrics *observability.Metrics
	logger  *slog.Logger

	interval       time.Duration
	samplesPerBuoy int
	selected       atomic.Int64

	mu             sync.RWMutex
	readings       []sensor.ClassifiedReading
	alerts         []Alert
	totalAnomalies int
	lastClass      string
	trainingRows   int
	evalTrue       []string
	evalPred       []string
	evalScore      []float64
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock sets the time source of the ticker and alert timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithInterval sets the period between readings.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithSamplesPerBuoy sets the size of a generated training dataset.
func WithSamplesPerBuoy(n int) Option {
	return func(m *Monitor) { m.samplesPerBuoy = n }
}

// WithSink publishes every classified reading to s.
func WithSink(s Sink) Option {
	return func(m *Monitor) { m.sink = s }
}

// WithOracle replaces the default normal ranges.
func WithOracle(o rules.Oracle) Option {
	return func(m *Monitor) { m.oracle = o }
}

// WithDriftDetector replaces the default DDM watching oracle disagreement.
func WithDriftDetector(d *drift.DDM) Option {
	return func(m *Monitor) { m.drift = d }
}

// WithBuoy selects the buoy read on each tick.
func WithBuoy(id int) Option {
	return func(m *Monitor) { m.selected.Store(int64(id)) }
}

// New builds a monitor. Defaults: 3s interval, 200 training readings per
// buoy, buoy 1, no sink.
func New(forest Forest, sim *sensor.Simulator, store dataset.Store, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		forest:         forest,
		sim:            sim,
		oracle:         rules.DefaultOracle(),
		store:          store,
		sink:           nopSink{},
		clock:          clockwork.NewRealClock(),
		drift:          drift.NewDDM(),
		metrics:        metrics,
		logger:         logger,
		interval:       3 * time.Second,
		samplesPerBuoy: 200,
		lastClass:      rules.LabelNormal,
	}
	m.selected.Store(1)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Train fits the forest on the stored dataset. When nothing is stored, or the
// stored dataset cannot be used, a fresh dataset is generated from the
// simulator, labelled by the oracle, and saved.
func (m *Monitor) Train(ctx context.Context) error {
	ds, err := m.store.Load(ctx)
	switch {
	case err == nil:
		fitErr := m.fit(ds)
		if fitErr == nil {
			m.logger.Info("forest trained from stored dataset", "rows", ds.Len())
			return nil
		}
		m.logger.Warn("stored dataset rejected, regenerating", "error", fitErr)
	case errors.Is(err, dataset.ErrNotFound):
		m.logger.Info("no stored dataset, generating one", "samples_per_buoy", m.samplesPerBuoy)
	default:
		m.logger.Warn("failed to load dataset, regenerating", "error", err)
	}

	ds, history := dataset.Generate(m.sim, m.oracle, m.samplesPerBuoy, m.clock.Now())
	if err := m.fit(ds); err != nil {
		return fmt.Errorf("train on generated dataset: %w", err)
	}
	if err := m.store.Save(ctx, ds); err != nil {
		m.logger.Warn("failed to persist training dataset", "error", err)
	}

	m.mu.Lock()
	if len(m.readings) == 0 {
		m.readings = lastN(history, MaxReadings)
	}
	m.mu.Unlock()

	m.logger.Info("forest trained from generated dataset", "rows", ds.Len())
	return nil
}

func (m *Monitor) fit(ds dataset.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	start := m.clock.Now()
	if err := m.forest.FitRows(ds.X, ds.Y); err != nil {
		return err
	}
	m.metrics.FitDuration.Observe(m.clock.Since(start).Seconds())
	m.metrics.ModelReady.Set(1)
	m.metrics.ModelTrees.Set(float64(m.forest.Stats().Trees))
	m.metrics.TrainingRows.Set(float64(ds.Len()))

	m.mu.Lock()
	m.trainingRows = ds.Len()
	m.mu.Unlock()
	return nil
}

// Run ticks until ctx is cancelled. Tick failures are logged and the loop
// continues.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("monitor started", "interval", m.interval, "buoy", m.SelectedBuoy())
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped")
			return nil
		case <-ticker.Chan():
			if _, err := m.Tick(ctx); err != nil {
				m.logger.Error("tick failed", "error", err)
			}
		}
	}
}

// Tick reads the selected buoy once, classifies the reading, and records it.
// Before the forest is fitted the classification is ensemble.UnknownLabel and
// no alert is raised.
func (m *Monitor) Tick(ctx context.Context) (sensor.ClassifiedReading, error) {
	buoy := m.SelectedBuoy()
	r := m.sim.Next(buoy)
	features := r.Features()

	start := m.clock.Now()
	labels, err := m.forest.PredictRows([][]float64{features})
	if err != nil {
		return sensor.ClassifiedReading{}, fmt.Errorf("classify reading from buoy %d: %w", buoy, err)
	}
	m.metrics.PredictDuration.Observe(m.clock.Since(start).Seconds())

	cr := sensor.ClassifiedReading{Reading: r, Classification: labels[0]}
	class := cr.Classification
	if class == ensemble.UnknownLabel {
		class = "unknown"
	}
	m.metrics.ReadingsTotal.WithLabelValues(class).Inc()

	score, scored := m.anomalyScore(features)
	m.record(cr, score, scored)

	if err := m.sink.Publish(ctx, cr); err != nil {
		m.metrics.SinkErrors.Inc()
		m.logger.Warn("failed to publish reading", "buoy", buoy, "error", err)
	}
	return cr, nil
}

// anomalyScore is the share of trees voting Anomalous.
func (m *Monitor) anomalyScore(features []float64) (float64, bool) {
	if !m.forest.IsFitted() {
		return 0, false
	}
	col := slices.Index(m.forest.Classes(), rules.LabelAnomalous)
	shares, err := m.forest.VoteShares(mat.NewDense(1, len(features), features))
	if err != nil {
		return 0, false
	}
	if col < 0 {
		return 0, true
	}
	return shares.At(0, col), true
}

func (m *Monitor) record(cr sensor.ClassifiedReading, score float64, scored bool) {
	truth := m.oracle.Label(cr.Reading)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.readings = appendBounded(m.readings, cr, MaxReadings)

	if cr.Classification != ensemble.UnknownLabel {
		outcome := "agree"
		if cr.Classification != truth {
			outcome = "disagree"
		}
		m.metrics.OracleAgreement.WithLabelValues(outcome).Inc()
		m.lastClass = cr.Classification

		res := m.drift.Update(outcome == "agree")
		if res.DriftDetected {
			m.metrics.DriftEvents.Inc()
			m.logger.Warn("forest drifting from oracle labels",
				"buoy", cr.BuoyID,
				"error_rate", res.ErrorRate,
				"confidence", res.ConfidenceLevel,
			)
		}
	}
	if scored {
		m.evalTrue = appendBounded(m.evalTrue, truth, evalWindow)
		m.evalPred = appendBounded(m.evalPred, cr.Classification, evalWindow)
		m.evalScore = appendBounded(m.evalScore, score, evalWindow)
	}

	if cr.Classification != rules.LabelAnomalous {
		return
	}

	alert := Alert{
		BuoyID:    cr.BuoyID,
		Timestamp: cr.Timestamp,
		Day:       cr.Timestamp.UTC().Format(time.DateOnly),
		Variable:  "conductivity",
		ValueRaw:  cr.Conductivity,
	}
	if worst, ok := m.oracle.WorstVariable(cr.Reading); ok {
		alert.Variable = worst.Variable
		alert.ValueRaw = worst.Value
		alert.DeviationPct = math.Round(worst.Pct*100) / 100
	}
	m.alerts = appendBounded(m.alerts, alert, MaxAlerts)
	m.totalAnomalies++
	m.metrics.AnomaliesTotal.WithLabelValues(alert.Variable).Inc()

	m.logger.Warn("anomaly detected",
		"buoy", alert.BuoyID,
		"variable", alert.Variable,
		"value", alert.ValueRaw,
		"deviation_pct", alert.DeviationPct,
	)
}

// Predict classifies rows of [pH, temperature, conductivity, oxygen, turbidity].
func (m *Monitor) Predict(rows [][]float64) ([]string, error) {
	return m.forest.PredictRows(rows)
}

// SelectBuoy changes the buoy read on each tick.
func (m *Monitor) SelectBuoy(id int) error {
	if !slices.Contains(sensor.Buoys, id) {
		return fmt.Errorf("unknown buoy %d", id)
	}
	m.selected.Store(int64(id))
	m.logger.Info("buoy selected", "buoy", id)
	return nil
}

func (m *Monitor) SelectedBuoy() int {
	return int(m.selected.Load())
}

// CheckReadiness reports ErrModelNotReady until the forest is fitted.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.forest.IsFitted() {
		return ErrModelNotReady
	}
	return nil
}

// Readings returns the most recent readings, oldest first.
func (m *Monitor) Readings() []sensor.ClassifiedReading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]sensor.ClassifiedReading{}, m.readings...)
}

// Alerts returns the most recent alerts, oldest first.
func (m *Monitor) Alerts() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Alert{}, m.alerts...)
}

func appendBounded[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = slices.Delete(s, 0, len(s)-limit)
	}
	return s
}

func lastN[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return slices.Clone(s)
}
