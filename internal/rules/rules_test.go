package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydras3/hydras/internal/sensor"
)

func normalReading() sensor.Reading {
	return sensor.Reading{BuoyID: 1, PH: 7.8, Temperature: 30, Conductivity: 26000, Oxygen: 5.1, Turbidity: 80}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sensor.Reading)
		want   string
	}{
		{"all in range", func(*sensor.Reading) {}, LabelNormal},
		{"range bounds are normal", func(r *sensor.Reading) { r.PH = 8.8; r.Turbidity = 40 }, LabelNormal},
		{"acidic", func(r *sensor.Reading) { r.PH = 6.99 }, LabelAnomalous},
		{"hot", func(r *sensor.Reading) { r.Temperature = 32.01 }, LabelAnomalous},
		{"salty", func(r *sensor.Reading) { r.Conductivity = 31000 }, LabelAnomalous},
		{"hypoxic", func(r *sensor.Reading) { r.Oxygen = 2 }, LabelAnomalous},
		{"murky", func(r *sensor.Reading) { r.Turbidity = 300 }, LabelAnomalous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := normalReading()
			tt.mutate(&r)
			assert.Equal(t, tt.want, Label(r))
			assert.Equal(t, tt.want == LabelAnomalous, DefaultOracle().OutOfRange(r))
		})
	}
}

func TestRangeDeviation(t *testing.T) {
	r := Range{Min: 40, Max: 250}

	assert.Zero(t, r.Deviation(100))
	assert.InDelta(t, 100*(300-250)/210.0, r.Deviation(300), 1e-9)
	assert.InDelta(t, 100*(40-19)/210.0, r.Deviation(19), 1e-9)

	degenerate := Range{Min: 5, Max: 5}
	assert.InDelta(t, 200.0, degenerate.Deviation(7), 1e-9)
}

func TestWorstVariable(t *testing.T) {
	_, ok := WorstVariable(normalReading())
	assert.False(t, ok)

	r := normalReading()
	r.Turbidity = 300 // 50/210 ≈ 23.8%
	r.PH = 6.5        // 0.5/1.8 ≈ 27.8%
	w, ok := WorstVariable(r)
	require.True(t, ok)
	assert.Equal(t, "pH", w.Variable)
	assert.Equal(t, 6.5, w.Value)
	assert.InDelta(t, 0.5/1.8*100, w.Pct, 1e-9)

	r.Turbidity = 400
	w, ok = WorstVariable(r)
	require.True(t, ok)
	assert.Equal(t, "turbidity", w.Variable)
}

func TestCustomOracle(t *testing.T) {
	o := DefaultOracle()
	o.Ranges[1] = Range{Min: 10, Max: 20}

	assert.Equal(t, LabelAnomalous, o.Label(normalReading()))
	assert.Equal(t, LabelNormal, Label(normalReading()))
}
