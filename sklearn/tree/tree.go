// Package tree implements a CART-style decision tree classifier over string
// labels. Splits are axis-aligned thresholds chosen by impurity reduction, and
// the feature subset examined at each node can be drawn at random, which makes
// the tree usable as the base learner of a random forest.
package tree

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/hydras3/hydras/core/model"
	"github.com/hydras3/hydras/metrics"
	"github.com/hydras3/hydras/pkg/errors"
	"github.com/hydras3/hydras/pkg/log"
)

const modelName = "DecisionTreeClassifier"

// DecisionTreeClassifier grows one tree per Fit. Fit replaces the whole
// structure. A fitted tree is read-only and safe for concurrent Predict calls,
// but Fit must not run concurrently with other methods.
type DecisionTreeClassifier struct {
	state *model.StateManager

	criterion       string
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means every feature
	randomState     int64

	logger log.Logger

	root      Node
	classes   []string
	nFeatures int
}

// DecisionTreeOption configures a DecisionTreeClassifier.
type DecisionTreeOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier returns an unfitted tree. Defaults: gini
// criterion, max depth 6, min samples to split 4, min samples per leaf 1,
// every feature considered at each node, nondeterministic random state.
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		maxDepth:        6,
		minSamplesSplit: 4,
		minSamplesLeaf:  1,
		maxFeatures:     0,
		randomState:     -1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	if dt.logger == nil {
		dt.logger = log.GetLogger().With(log.ModelNameKey, modelName)
	}
	return dt
}

// WithCriterion selects "gini" or "entropy".
func WithCriterion(criterion string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth sets the depth at which nodes stop splitting. 0 yields a
// single leaf.
func WithMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the row count below which a node becomes a leaf.
func WithMinSamplesSplit(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf rejects thresholds leaving fewer than n rows on a side.
func WithMinSamplesLeaf(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets how many randomly drawn features are examined at each
// node. 0 examines every feature in index order.
func WithMaxFeatures(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = n
	}
}

// WithRandomState seeds the feature-subset draws. -1 picks a random seed at
// every Fit.
func WithRandomState(seed int64) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}

func WithLogger(logger log.Logger) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.logger = logger
	}
}

// Fit grows the tree from X and one label per row.
func (dt *DecisionTreeClassifier) Fit(X mat.Matrix, y []string) (err error) {
	const op = modelName + ".Fit"
	defer errors.Recover(&err, op)

	if err := dt.validateParams(); err != nil {
		return err
	}
	nSamples, nFeatures, err := model.ValidateFitInput(op, X, y)
	if err != nil {
		return err
	}

	start := time.Now()

	classes := model.SortedClasses(y)
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	maxFeatures := dt.maxFeatures
	if maxFeatures > nFeatures {
		errors.Warn(errors.NewHyperparameterWarning("max_features", maxFeatures, nFeatures,
			fmt.Sprintf("only %d features in training data", nFeatures)))
		maxFeatures = nFeatures
	}
	if maxFeatures == 0 {
		maxFeatures = nFeatures
	}

	data := newTrainingSet(X, y, classIndex)
	impurity, _ := criterionFunc(dt.criterion)
	b := &builder{
		data:            data,
		classes:         classes,
		splitter:        newSplitter(data, impurity, dt.minSamplesLeaf),
		maxDepth:        dt.maxDepth,
		minSamplesSplit: dt.minSamplesSplit,
		maxFeatures:     maxFeatures,
		rng:             newRand(dt.randomState),
	}

	rows := make([]int, nSamples)
	for i := range rows {
		rows[i] = i
	}
	root := b.grow(rows, 0)

	dt.root = root
	dt.classes = classes
	dt.nFeatures = nFeatures
	dt.state.SetFitted(nFeatures, nSamples)

	dt.logger.Debug("tree fitted",
		log.OperationKey, "fit",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, len(classes),
		log.DepthKey, Depth(root),
		log.LeavesKey, CountLeaves(root),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// FitRows is Fit over a row-major table.
func (dt *DecisionTreeClassifier) FitRows(X [][]float64, y []string) error {
	dense, err := model.RowsToDense(modelName+".Fit", X)
	if err != nil {
		return err
	}
	return dt.Fit(dense, y)
}

// Predict returns the label of the leaf each row of X falls into.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) ([]string, error) {
	leaves, err := dt.apply(X, "Predict")
	if err != nil {
		return nil, err
	}
	out := make([]string, len(leaves))
	for i, leaf := range leaves {
		out[i] = leaf.Label
	}
	return out, nil
}

// PredictRow classifies a single feature vector.
func (dt *DecisionTreeClassifier) PredictRow(row []float64) (string, error) {
	if err := dt.state.RequireFitted(modelName, "PredictRow"); err != nil {
		return "", err
	}
	if err := dt.state.RequireFeatures(modelName+".PredictRow", len(row)); err != nil {
		return "", err
	}
	return Apply(dt.root, row).Label, nil
}

// PredictProba returns, per row, the class distribution of the training rows
// in the leaf the row falls into. Columns follow Classes().
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	leaves, err := dt.apply(X, "PredictProba")
	if err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return &mat.Dense{}, nil
	}
	proba := mat.NewDense(len(leaves), len(dt.classes), nil)
	for i, leaf := range leaves {
		for j, c := range leaf.Counts {
			proba.Set(i, j, float64(c)/float64(leaf.Samples))
		}
	}
	return proba, nil
}

func (dt *DecisionTreeClassifier) apply(X mat.Matrix, method string) ([]*Leaf, error) {
	if err := dt.state.RequireFitted(modelName, method); err != nil {
		return nil, err
	}
	rows, cols := model.Dims(X)
	if rows == 0 {
		return nil, nil
	}
	if err := dt.state.RequireFeatures(modelName+"."+method, cols); err != nil {
		return nil, err
	}
	leaves := make([]*Leaf, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		leaves[i] = Apply(dt.root, row)
	}
	return leaves, nil
}

// Score returns the accuracy of Predict(X) against y.
func (dt *DecisionTreeClassifier) Score(X mat.Matrix, y []string) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, pred)
}

func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// Root returns the root node, or nil before Fit.
func (dt *DecisionTreeClassifier) Root() Node {
	return dt.root
}

// Classes returns the sorted labels seen by the last Fit.
func (dt *DecisionTreeClassifier) Classes() []string {
	return append([]string(nil), dt.classes...)
}

// NFeatures returns the feature count seen by the last Fit.
func (dt *DecisionTreeClassifier) NFeatures() int {
	return dt.nFeatures
}

// GetDepth returns the depth of the fitted tree, 0 for a single leaf or an
// unfitted tree.
func (dt *DecisionTreeClassifier) GetDepth() int {
	if dt.root == nil {
		return 0
	}
	return Depth(dt.root)
}

// GetNLeaves returns the number of leaves, 0 when unfitted.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	if dt.root == nil {
		return 0
	}
	return CountLeaves(dt.root)
}

// GetParams returns the hyperparameters keyed by their snake_case names.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams updates hyperparameters by name. Unknown names and values of the
// wrong type are ValidationErrors; ranges are checked at Fit.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "criterion":
			v, ok := value.(string)
			if !ok {
				return errors.NewValidationError(key, "must be a string", value)
			}
			dt.criterion = v
		case "max_depth", "min_samples_split", "min_samples_leaf", "max_features":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			switch key {
			case "max_depth":
				dt.maxDepth = v
			case "min_samples_split":
				dt.minSamplesSplit = v
			case "min_samples_leaf":
				dt.minSamplesLeaf = v
			default:
				dt.maxFeatures = v
			}
		case "random_state":
			switch v := value.(type) {
			case int64:
				dt.randomState = v
			case int:
				dt.randomState = int64(v)
			default:
				return errors.NewValidationError(key, "must be an integer", value)
			}
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

func (dt *DecisionTreeClassifier) validateParams() error {
	if _, ok := criterionFunc(dt.criterion); !ok {
		return errors.NewValidationError("criterion", `must be "gini" or "entropy"`, dt.criterion)
	}
	if dt.maxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be non-negative", dt.maxDepth)
	}
	if dt.minSamplesSplit < 0 {
		return errors.NewValidationError("min_samples_split", "must be non-negative", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", dt.minSamplesLeaf)
	}
	if dt.maxFeatures < 0 {
		return errors.NewValidationError("max_features", "must be non-negative", dt.maxFeatures)
	}
	return nil
}

// newRand returns a PCG generator seeded from seed, or from the global
// generator when seed is negative.
func newRand(seed int64) *rand.Rand {
	s := uint64(seed)
	if seed < 0 {
		s = rand.Uint64()
	}
	return rand.New(rand.NewPCG(s, s))
}

// builder grows one tree. It owns the random generator used for feature
// subsets, so a builder must not be shared between goroutines.
type builder struct {
	data     *trainingSet
	classes  []string
	splitter *splitter

	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
	rng             *rand.Rand

	perm []int
}

// grow returns the subtree for rows at depth. Stopping checks run in order:
// depth, row count, purity, then the split search on a fresh feature subset.
func (b *builder) grow(rows []int, depth int) Node {
	counts := b.data.counts(rows)

	if depth >= b.maxDepth || len(rows) < b.minSamplesSplit || isPure(counts) {
		return b.leaf(rows, counts)
	}

	cand, ok := b.splitter.best(rows, counts, b.drawFeatures())
	if !ok {
		return b.leaf(rows, counts)
	}

	left, right := b.splitter.partition(rows, cand)
	return &Split{
		Feature:   cand.feature,
		Threshold: cand.threshold,
		Samples:   len(rows),
		Left:      b.grow(left, depth+1),
		Right:     b.grow(right, depth+1),
	}
}

// leaf labels a node with its majority class. Classes are scanned in sorted
// order and the first maximum wins, so ties go to the smallest label.
func (b *builder) leaf(rows []int, counts []int) *Leaf {
	best := 0
	for c := 1; c < len(counts); c++ {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return &Leaf{Label: b.classes[best], Samples: len(rows), Counts: counts}
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// drawFeatures returns the features to examine at the next node: all of them
// in index order, or maxFeatures drawn without replacement by a partial
// Fisher-Yates shuffle. The returned slice is valid until the next call.
func (b *builder) drawFeatures() []int {
	p := len(b.data.cols)
	if b.perm == nil {
		b.perm = make([]int, p)
		for i := range b.perm {
			b.perm[i] = i
		}
	}
	if b.maxFeatures >= p {
		return b.perm[:p:p]
	}
	for i := 0; i < b.maxFeatures; i++ {
		j := i + b.rng.IntN(p-i)
		b.perm[i], b.perm[j] = b.perm[j], b.perm[i]
	}
	return b.perm[:b.maxFeatures]
}
