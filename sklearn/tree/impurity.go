package tree

import "math"

// Gini returns the Gini impurity 1 - Σ p_k² of labels. It is 0 for an empty
// or pure sequence and strictly below 1 otherwise.
func Gini(labels []string) float64 {
	return giniCounts(countLabels(labels), len(labels))
}

// Entropy returns the Shannon entropy of labels in bits. It is 0 for an empty
// or pure sequence.
func Entropy(labels []string) float64 {
	return entropyCounts(countLabels(labels), len(labels))
}

func countLabels(labels []string) []int {
	index := make(map[string]int)
	var counts []int
	for _, l := range labels {
		i, ok := index[l]
		if !ok {
			i = len(counts)
			index[l] = i
			counts = append(counts, 0)
		}
		counts[i]++
	}
	return counts
}

// impurityFunc scores a node from its per-class counts and total.
type impurityFunc func(counts []int, n int) float64

func giniCounts(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	total := float64(n)
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / total
		sum += p * p
	}
	return 1 - sum
}

func entropyCounts(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	total := float64(n)
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}

func criterionFunc(name string) (impurityFunc, bool) {
	switch name {
	case "gini":
		return giniCounts, true
	case "entropy":
		return entropyCounts, true
	default:
		return nil, false
	}
}
