package ensemble

import (
	"github.com/hydras3/hydras/sklearn/tree"
)

// UnknownLabel is returned for every row by an ensemble that has never been
// fitted. Training labels are never empty, so it cannot collide with a class.
const UnknownLabel = ""

// snapshot is an immutable fitted ensemble. It is published as a whole and
// never modified afterwards.
type snapshot struct {
	trees       []*tree.DecisionTreeClassifier
	roots       []tree.Node
	classes     []string
	classIndex  map[string]int
	nFeatures   int
	maxFeatures int
	nSamples    int
}

func newSnapshot(trees []*tree.DecisionTreeClassifier, classes []string, nFeatures, maxFeatures, nSamples int) *snapshot {
	s := &snapshot{
		trees:       trees,
		roots:       make([]tree.Node, len(trees)),
		classes:     classes,
		classIndex:  make(map[string]int, len(classes)),
		nFeatures:   nFeatures,
		maxFeatures: maxFeatures,
		nSamples:    nSamples,
	}
	for i, t := range trees {
		s.roots[i] = t.Root()
	}
	for i, c := range classes {
		s.classIndex[c] = i
	}
	return s
}

// tally counts the vote of every tree for row into counts, which must have
// one slot per class.
func (s *snapshot) tally(row []float64, counts []int) {
	clear(counts)
	for _, root := range s.roots {
		counts[s.classIndex[tree.Apply(root, row).Label]]++
	}
}

// majority returns the class with the most votes. Counts are laid out in
// sorted class order and the first maximum wins, so a tie goes to the
// lexicographically smallest label.
func (s *snapshot) majority(counts []int) string {
	best := 0
	for c := 1; c < len(counts); c++ {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return s.classes[best]
}
