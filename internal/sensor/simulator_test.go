package sensor

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)

func newTestSimulator(seed uint64) *Simulator {
	return NewSimulator(
		WithRandSource(rand.NewPCG(seed, seed)),
		WithClock(clockwork.NewFakeClockAt(epoch)),
	)
}

func TestReadingFeaturesOrder(t *testing.T) {
	r := Reading{PH: 7.5, Temperature: 29, Conductivity: 12000, Oxygen: 5, Turbidity: 80}

	assert.Equal(t, []float64{7.5, 29, 12000, 5, 80}, r.Features())
	for i, v := range r.Features() {
		assert.Equal(t, v, r.Value(i), FeatureNames[i])
	}
	assert.Zero(t, r.Value(NumFeatures))
}

func TestIsSeaBuoy(t *testing.T) {
	for _, id := range []int{1, 6, 7} {
		assert.True(t, IsSeaBuoy(id), "buoy %d", id)
	}
	for _, id := range []int{2, 3, 4, 5} {
		assert.False(t, IsSeaBuoy(id), "buoy %d", id)
	}
}

func TestSimulatorDeterministic(t *testing.T) {
	a := newTestSimulator(42)
	b := newTestSimulator(42)

	for i := 0; i < 200; i++ {
		id := Buoys[i%len(Buoys)]
		assert.Equal(t, a.Next(id), b.Next(id))
	}
}

func TestSimulatorUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	sim := NewSimulator(WithRandSource(rand.NewPCG(1, 1)), WithClock(clock))

	r := sim.Next(3)
	assert.Equal(t, 3, r.BuoyID)
	assert.Equal(t, epoch, r.Timestamp)

	clock.Advance(3 * time.Second)
	assert.Equal(t, epoch.Add(3*time.Second), sim.Next(3).Timestamp)
}

func TestSimulatorBounds(t *testing.T) {
	sim := newTestSimulator(7)

	for i := 0; i < 5000; i++ {
		r := sim.Next(Buoys[i%len(Buoys)])
		assert.GreaterOrEqual(t, r.PH, 4.0)
		assert.LessOrEqual(t, r.PH, 12.0)
		assert.GreaterOrEqual(t, r.Temperature, 0.0)
		assert.LessOrEqual(t, r.Temperature, 50.0)
		assert.GreaterOrEqual(t, r.Conductivity, 0.0)
		assert.LessOrEqual(t, r.Conductivity, 40000.0)
		assert.GreaterOrEqual(t, r.Oxygen, 0.0)
		assert.LessOrEqual(t, r.Oxygen, 12.0)
		assert.GreaterOrEqual(t, r.Turbidity, 0.0)
		assert.LessOrEqual(t, r.Turbidity, 500.0)

		for _, v := range r.Features() {
			scaled := v * 100
			assert.InDelta(t, math.Round(scaled), scaled, 1e-6, "value %v has more than two decimals", v)
		}
	}
}

func TestSimulatorConductivityWalkStaysBounded(t *testing.T) {
	sim := newTestSimulator(11)

	for i := 0; i < 3000; i++ {
		sim.Next(1)
		sim.Next(2)
	}
	for id, base := range sim.conductivity {
		assert.GreaterOrEqual(t, base, 5000.0, "buoy %d", id)
		assert.LessOrEqual(t, base, 30000.0, "buoy %d", id)
	}
}

func TestSimulatorSeaBuoysAreSalty(t *testing.T) {
	sim := newTestSimulator(3)

	sea := sim.Next(1)
	fresh := sim.Next(2)

	// first readings start from 26000±800 and 8000±1200 respectively
	require.Contains(t, sim.conductivity, 1)
	require.Contains(t, sim.conductivity, 2)
	assert.InDelta(t, 26000, sim.conductivity[1], 800)
	assert.InDelta(t, 8000, sim.conductivity[2], 1200)
	assert.Greater(t, sea.Conductivity, fresh.Conductivity)
}

func TestSimulatorInjectsAnomalies(t *testing.T) {
	sim := newTestSimulator(2024)

	const n = 7000
	outOfRange := 0
	for i := 0; i < n; i++ {
		r := sim.Next(Buoys[i%len(Buoys)])
		if r.PH < 7.0 || r.PH > 8.8 || r.Temperature < 28 || r.Temperature > 32 ||
			r.Conductivity < 5000 || r.Conductivity > 30000 ||
			r.Oxygen < 3.5 || r.Oxygen > 6.8 || r.Turbidity < 40 || r.Turbidity > 250 {
			outOfRange++
		}
	}

	rate := float64(outOfRange) / n
	assert.Greater(t, rate, 0.005)
	assert.Less(t, rate, 0.15)
}

func TestAnomalyWeightsSumToOne(t *testing.T) {
	total := 0.0
	for _, w := range anomalyWeights {
		total += w.weight
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}
