package tree

// Node is a node of a fitted tree: either a *Leaf or a *Split. The set of
// variants is closed, so a type switch over both is exhaustive.
type Node interface {
	node()
}

// Leaf predicts Label, the majority label of the Samples training rows that
// reached it. Counts holds the per-class row counts in the tree's Classes order.
type Leaf struct {
	Label   string
	Samples int
	Counts  []int
}

// Split sends rows with row[Feature] <= Threshold to Left and all others to Right.
type Split struct {
	Feature   int
	Threshold float64
	Samples   int
	Left      Node
	Right     Node
}

func (*Leaf) node()  {}
func (*Split) node() {}

// Apply walks from n to the leaf that row falls into.
func Apply(n Node, row []float64) *Leaf {
	for {
		switch v := n.(type) {
		case *Leaf:
			return v
		case *Split:
			if row[v.Feature] <= v.Threshold {
				n = v.Left
			} else {
				n = v.Right
			}
		default:
			return nil
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func Depth(n Node) int {
	s, ok := n.(*Split)
	if !ok {
		return 0
	}
	return 1 + max(Depth(s.Left), Depth(s.Right))
}

// CountLeaves returns the number of leaves under n.
func CountLeaves(n Node) int {
	switch v := n.(type) {
	case *Leaf:
		return 1
	case *Split:
		return CountLeaves(v.Left) + CountLeaves(v.Right)
	default:
		return 0
	}
}

// Walk calls fn for every node in pre-order with its depth.
func Walk(n Node, fn func(n Node, depth int)) {
	walk(n, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int)) {
	if n == nil {
		return
	}
	fn(n, depth)
	if s, ok := n.(*Split); ok {
		walk(s.Left, depth+1, fn)
		walk(s.Right, depth+1, fn)
	}
}
