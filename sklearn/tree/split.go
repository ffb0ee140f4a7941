package tree

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// minGain is the smallest impurity reduction accepted as an improvement.
// Reductions below it are rounding noise from equal-impurity partitions.
const minGain = 1e-12

// trainingSet is the column-major view of the rows a tree is grown from.
type trainingSet struct {
	cols     [][]float64 // cols[feature][row]
	y        []int       // class index per row
	nClasses int
}

func newTrainingSet(X mat.Matrix, y []string, classIndex map[string]int) *trainingSet {
	nSamples, nFeatures := X.Dims()
	ts := &trainingSet{
		cols:     make([][]float64, nFeatures),
		y:        make([]int, nSamples),
		nClasses: len(classIndex),
	}
	for j := 0; j < nFeatures; j++ {
		ts.cols[j] = mat.Col(nil, j, X)
	}
	for i, label := range y {
		ts.y[i] = classIndex[label]
	}
	return ts
}

func (ts *trainingSet) counts(rows []int) []int {
	counts := make([]int, ts.nClasses)
	for _, r := range rows {
		counts[ts.y[r]]++
	}
	return counts
}

// splitCandidate is a (feature, threshold) pair and the reduction it achieves.
type splitCandidate struct {
	feature   int
	threshold float64
	gain      float64
}

// splitter searches the best threshold over a subset of features. Its scratch
// buffers are reused across nodes, so one splitter serves one build.
type splitter struct {
	data           *trainingSet
	impurity       impurityFunc
	minSamplesLeaf int

	order []int
	left  []int
	right []int
}

func newSplitter(data *trainingSet, impurity impurityFunc, minSamplesLeaf int) *splitter {
	return &splitter{
		data:           data,
		impurity:       impurity,
		minSamplesLeaf: max(1, minSamplesLeaf),
		order:          make([]int, 0, len(data.y)),
		left:           make([]int, data.nClasses),
		right:          make([]int, data.nClasses),
	}
}

// best returns the split with the largest impurity reduction over features,
// visited in the given order. Thresholds are midpoints between adjacent
// distinct values, so both children are non-empty. A later candidate replaces
// the current best only when strictly better. ok is false when no candidate
// reduces impurity.
func (s *splitter) best(rows []int, parentCounts []int, features []int) (best splitCandidate, ok bool) {
	n := len(rows)
	parent := s.impurity(parentCounts, n)
	best.gain = minGain

	for _, f := range features {
		values := s.data.cols[f]
		s.order = append(s.order[:0], rows...)
		slices.SortFunc(s.order, func(a, b int) int { return cmp.Compare(values[a], values[b]) })

		clear(s.left)
		copy(s.right, parentCounts)

		for i := 0; i < n-1; i++ {
			c := s.data.y[s.order[i]]
			s.left[c]++
			s.right[c]--

			lo, hi := values[s.order[i]], values[s.order[i+1]]
			if lo == hi {
				continue
			}
			nLeft := i + 1
			nRight := n - nLeft
			if nLeft < s.minSamplesLeaf || nRight < s.minSamplesLeaf {
				continue
			}

			gain := parent -
				float64(nLeft)/float64(n)*s.impurity(s.left, nLeft) -
				float64(nRight)/float64(n)*s.impurity(s.right, nRight)
			if gain > best.gain {
				best = splitCandidate{feature: f, threshold: midpoint(lo, hi), gain: gain}
				ok = true
			}
		}
	}
	return best, ok
}

// midpoint returns a threshold t with lo <= t < hi.
func midpoint(lo, hi float64) float64 {
	t := lo + (hi-lo)/2
	if t >= hi {
		return lo
	}
	return t
}

// partition splits rows by the candidate. Every row lands on exactly one side.
func (s *splitter) partition(rows []int, c splitCandidate) (left, right []int) {
	values := s.data.cols[c.feature]
	left = make([]int, 0, len(rows))
	right = make([]int, 0, len(rows))
	for _, r := range rows {
		if values[r] <= c.threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}
