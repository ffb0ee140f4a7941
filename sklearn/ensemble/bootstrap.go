package ensemble

import (
	"math"
	"math/rand/v2"
)

// Sampler chooses the training rows of one tree from a dataset of n rows.
// Returned indices must lie in [0, n).
type Sampler interface {
	Sample(n int, ratio float64, rng *rand.Rand) []int
}

// Bootstrap draws max(2, floor(ratio*n)) row indices uniformly with
// replacement. Rows may repeat and some rows may be absent.
type Bootstrap struct{}

func (Bootstrap) Sample(n int, ratio float64, rng *rand.Rand) []int {
	size := SampleSize(n, ratio)
	idx := make([]int, size)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

// SampleSize returns max(2, floor(ratio*n)).
func SampleSize(n int, ratio float64) int {
	return max(2, int(math.Floor(ratio*float64(n))))
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(n int, ratio float64, rng *rand.Rand) []int

func (f SamplerFunc) Sample(n int, ratio float64, rng *rand.Rand) []int {
	return f(n, ratio, rng)
}

// Identity returns every row once in order. It turns bagging off.
var Identity Sampler = SamplerFunc(func(n int, _ float64, _ *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
})
