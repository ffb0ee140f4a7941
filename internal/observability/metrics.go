// Package observability defines the Prometheus metrics of the monitoring
// service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hydras"

// Metrics holds the counters, histograms, and gauges of the monitor.
type Metrics struct {
	ReadingsTotal   *prometheus.CounterVec // labels: classification
	AnomaliesTotal  *prometheus.CounterVec // labels: variable
	OracleAgreement *prometheus.CounterVec // labels: outcome={agree,disagree}
	SinkErrors      prometheus.Counter
	DriftEvents     prometheus.Counter

	PredictDuration prometheus.Histogram
	FitDuration     prometheus.Histogram

	ModelReady   prometheus.Gauge
	ModelTrees   prometheus.Gauge
	TrainingRows prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReadingsTotal,
		m.AnomaliesTotal,
		m.OracleAgreement,
		m.SinkErrors,
		m.DriftEvents,
		m.PredictDuration,
		m.FitDuration,
		m.ModelReady,
		m.ModelTrees,
		m.TrainingRows,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReadingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Readings classified, by predicted label.",
		}, []string{"classification"}),
		AnomaliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Alerts raised, by the variable furthest out of range.",
		}, []string{"variable"}),
		OracleAgreement: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_agreement_total",
			Help:      "Predictions compared with the rule-based oracle.",
		}, []string{"outcome"}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Classified readings that could not be published.",
		}),
		DriftEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drift_events_total",
			Help:      "Times the oracle disagreement rate was judged out of control.",
		}),
		PredictDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predict_duration_seconds",
			Help:      "Time spent classifying one reading.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		FitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Time spent training the forest.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		ModelReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_ready",
			Help:      "1 once the forest has been fitted.",
		}),
		ModelTrees: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_trees",
			Help:      "Trees in the fitted forest.",
		}),
		TrainingRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_rows",
			Help:      "Rows in the training dataset.",
		}),
	}
}
