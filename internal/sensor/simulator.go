package sensor

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/stat/distuv"
)

// Buoys are the identifiers of the simulated network.
var Buoys = []int{1, 2, 3, 4, 5, 6, 7}

// seaBuoys sit in salt water and start from a much higher conductivity.
var seaBuoys = []int{1, 6, 7}

// AnomalyRate is the probability that a reading carries an injected anomaly.
const AnomalyRate = 0.06

type anomalyKind int

const (
	anomalyTurbidity anomalyKind = iota
	anomalyConductivity
	anomalyTemperature
	anomalyOxygen
	anomalyPH
)

var anomalyWeights = []struct {
	kind   anomalyKind
	weight float64
}{
	{anomalyTurbidity, 0.45},
	{anomalyConductivity, 0.25},
	{anomalyTemperature, 0.15},
	{anomalyOxygen, 0.10},
	{anomalyPH, 0.05},
}

// Simulator produces plausible readings per buoy. Conductivity follows a
// bounded random walk per buoy, the other variables are Gaussian around a
// buoy-specific base. It is safe for concurrent use.
type Simulator struct {
	mu           sync.Mutex
	rng          *rand.Rand
	clock        clockwork.Clock
	conductivity map[int]float64
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRandSource makes the simulator reproducible.
func WithRandSource(src rand.Source) Option {
	return func(s *Simulator) { s.rng = rand.New(src) }
}

// WithClock sets the time source used for timestamps and the initial
// conductivity phase.
func WithClock(c clockwork.Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		clock:        clockwork.NewRealClock(),
		conductivity: make(map[int]float64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		seed := rand.Uint64()
		s.rng = rand.New(rand.NewPCG(seed, seed))
	}
	return s
}

// IsSeaBuoy reports whether the buoy is moored in salt water.
func IsSeaBuoy(buoyID int) bool {
	return slices.Contains(seaBuoys, buoyID)
}

// Next returns the next reading for buoyID.
func (s *Simulator) Next(buoyID int) Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	offset := math.Mod(float64(buoyID)*13.37, 7)
	sea := IsSeaBuoy(buoyID)

	phBase := 7.6 + offset*0.015
	tempBase := 29.5 + offset*0.03
	oxyBase := 5.2 - offset*0.08
	turbBase := 70 + offset*3

	condBase, ok := s.conductivity[buoyID]
	if ok {
		drift := 300.0
		if sea {
			drift = 150
		}
		condBase = clamp(condBase+s.between(-drift, drift), 5000, 30000)
	} else {
		phase := math.Sin(float64(now.UnixMilli())/1.5e7 + float64(buoyID))
		if sea {
			condBase = 26000 + phase*800
		} else {
			condBase = 8000 + phase*1200
		}
	}
	s.conductivity[buoyID] = condBase

	condSD := 700.0
	if sea {
		condSD = 400
	}
	conductivity := s.noise(condBase, condSD)
	ph := s.noise(phBase, 0.3)
	temperature := s.noise(tempBase, 0.25)
	oxygen := s.noise(oxyBase, 0.6)
	turbidity := math.Abs(s.noise(turbBase, 15))

	r := Reading{BuoyID: buoyID, Timestamp: now}

	if s.rng.Float64() < AnomalyRate {
		switch s.anomaly() {
		case anomalyPH:
			if s.rng.Float64() > 0.5 {
				ph += 2.5
			} else {
				ph -= 3.0
			}
		case anomalyTemperature:
			temperature += s.between(4, 12)
		case anomalyConductivity:
			conductivity += s.between(4000, 10000)
		case anomalyOxygen:
			oxygen = math.Max(0.5, oxygen-s.between(2, 4))
		case anomalyTurbidity:
			turbidity += s.between(100, 250)
		}
		r.PH = clamp(round2(ph), 4, 12)
		r.Temperature = clamp(round2(temperature), 0, 50)
		r.Conductivity = clamp(round2(conductivity), 0, 40000)
		r.Oxygen = clamp(round2(oxygen), 0, 12)
		r.Turbidity = clamp(round2(turbidity), 0, 500)
		return r
	}

	r.PH = round2(clamp(ph, 7.0, 8.8))
	r.Temperature = round2(clamp(temperature, 28, 32))
	r.Conductivity = round2(clamp(conductivity, 5000, 30000))
	r.Oxygen = round2(clamp(oxygen, 3.5, 6.8))
	r.Turbidity = round2(clamp(turbidity, 40, 250))
	return r
}

func (s *Simulator) noise(mean, sd float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: sd, Src: s.rng}.Rand()
}

func (s *Simulator) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *Simulator) anomaly() anomalyKind {
	total := 0.0
	for _, w := range anomalyWeights {
		total += w.weight
	}
	r := s.rng.Float64() * total
	acc := 0.0
	for _, w := range anomalyWeights {
		acc += w.weight
		if r <= acc {
			return w.kind
		}
	}
	return anomalyWeights[0].kind
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
