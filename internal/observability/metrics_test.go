package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTestingIsUnregistered(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.ReadingsTotal.WithLabelValues("Normal").Inc()
	a.ReadingsTotal.WithLabelValues("Normal").Inc()
	a.ModelReady.Set(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.ReadingsTotal.WithLabelValues("Normal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ModelReady))
	assert.Zero(t, testutil.ToFloat64(b.ModelReady))
}

func TestMetricsRegisterCleanly(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewPedanticRegistry()

	require.NoError(t, reg.Register(m.ReadingsTotal))
	require.NoError(t, reg.Register(m.AnomaliesTotal))
	require.NoError(t, reg.Register(m.FitDuration))
	require.NoError(t, reg.Register(m.ModelTrees))

	m.AnomaliesTotal.WithLabelValues("turbidity").Inc()
	m.FitDuration.Observe(0.25)
	m.ModelTrees.Set(15)

	count, err := testutil.GatherAndCount(reg, "hydras_anomalies_total", "hydras_model_trees")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
