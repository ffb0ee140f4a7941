// Package ensemble implements a random forest classifier: bagged decision
// trees, each grown on a bootstrap sample with a random feature subset drawn
// at every node, combined by majority vote.
package ensemble

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/hydras3/hydras/core/model"
	"github.com/hydras3/hydras/core/parallel"
	"github.com/hydras3/hydras/metrics"
	"github.com/hydras3/hydras/pkg/errors"
	"github.com/hydras3/hydras/pkg/log"
	"github.com/hydras3/hydras/sklearn/tree"
)

const modelName = "RandomForestClassifier"

// predictParallelThreshold is the row count above which Predict fans out.
const predictParallelThreshold = 256

// RandomForestClassifier is safe for concurrent use. Fit calls are
// serialised; Predict reads the last published snapshot without locking and
// never observes a partially built forest.
type RandomForestClassifier struct {
	nEstimators     int
	maxDepth        int
	minSamplesSplit int
	sampleRatio     float64
	maxFeatures     int // 0 means floor(sqrt(nFeatures))
	randomState     int64
	nJobs           int

	sampler Sampler
	logger  log.Logger

	fitMu sync.Mutex
	rng   *rand.Rand // guarded by fitMu

	current atomic.Pointer[snapshot]
}

// RandomForestOption configures a RandomForestClassifier.
type RandomForestOption func(*RandomForestClassifier)

// NewRandomForestClassifier returns an unfitted forest. Defaults: 10 trees,
// max depth 6, min samples to split 4, sample ratio 0.7, floor(sqrt(nFeatures))
// features per split, nondeterministic random state, one worker per CPU.
func NewRandomForestClassifier(opts ...RandomForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		nEstimators:     10,
		maxDepth:        6,
		minSamplesSplit: 4,
		sampleRatio:     0.7,
		randomState:     -1,
		nJobs:           runtime.NumCPU(),
		sampler:         Bootstrap{},
	}
	for _, opt := range opts {
		opt(rf)
	}
	if rf.rng == nil {
		seed := uint64(rf.randomState)
		if rf.randomState < 0 {
			seed = rand.Uint64()
		}
		rf.rng = rand.New(rand.NewPCG(seed, seed))
	}
	if rf.logger == nil {
		rf.logger = log.GetLogger().With(log.ModelNameKey, modelName)
	}
	return rf
}

func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.nEstimators = n
	}
}

func WithMaxDepth(depth int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxDepth = depth
	}
}

func WithMinSamplesSplit(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesSplit = n
	}
}

// WithSampleRatio sets the fraction of rows drawn for each tree, in (0, 1].
func WithSampleRatio(ratio float64) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.sampleRatio = ratio
	}
}

// WithMaxFeatures sets the features examined per split. 0 derives
// floor(sqrt(nFeatures)) from the training data.
func WithMaxFeatures(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxFeatures = n
	}
}

// WithRandomState seeds the forest. -1 seeds from the global generator.
func WithRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.randomState = seed
		rf.rng = nil
	}
}

// WithRandSource makes the forest draw from src. When combined with
// WithRandomState the later option wins.
func WithRandSource(src rand.Source) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.rng = rand.New(src)
	}
}

// WithSampler replaces the bootstrap sampler.
func WithSampler(s Sampler) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.sampler = s
	}
}

// WithNJobs bounds the number of trees built concurrently. n <= 0 means one
// per CPU.
func WithNJobs(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		rf.nJobs = n
	}
}

func WithLogger(logger log.Logger) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.logger = logger
	}
}

// Fit trains a fresh forest on X and y and publishes it once every tree has
// been built. On error the previously fitted forest, if any, stays in place.
func (rf *RandomForestClassifier) Fit(X mat.Matrix, y []string) (err error) {
	const op = modelName + ".Fit"
	defer errors.Recover(&err, op)

	if err := rf.validateParams(); err != nil {
		return err
	}
	nSamples, nFeatures, err := model.ValidateFitInput(op, X, y)
	if err != nil {
		return err
	}
	maxFeatures := rf.resolveMaxFeatures(nFeatures)

	rf.fitMu.Lock()
	defer rf.fitMu.Unlock()

	start := time.Now()

	// Draws happen in a fixed order on this goroutine so the forest only
	// depends on the seed, not on scheduling.
	seeds := make([]int64, rf.nEstimators)
	samples := make([][]int, rf.nEstimators)
	for i := range seeds {
		seeds[i] = rf.rng.Int64()
		samples[i] = rf.sampler.Sample(nSamples, rf.sampleRatio, rf.rng)
		if err := checkSample(op, i, samples[i], nSamples); err != nil {
			return err
		}
	}

	trees := make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	var g errgroup.Group
	g.SetLimit(rf.nJobs)
	for i := range trees {
		g.Go(func() (err error) {
			defer errors.Recover(&err, fmt.Sprintf("%s.tree[%d]", modelName, i))

			t := tree.NewDecisionTreeClassifier(
				tree.WithMaxDepth(rf.maxDepth),
				tree.WithMinSamplesSplit(rf.minSamplesSplit),
				tree.WithMaxFeatures(maxFeatures),
				tree.WithRandomState(seeds[i]),
				tree.WithLogger(rf.logger.With(log.TreeIndexKey, i)),
			)
			Xs, ys := bootstrapRows(X, y, samples[i], nFeatures)
			if err := t.Fit(Xs, ys); err != nil {
				return errors.Wrapf(err, "tree %d", i)
			}
			trees[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.NewModelError(op, "tree construction failed", err)
	}

	classes := model.SortedClasses(y)
	rf.current.Store(newSnapshot(trees, classes, nFeatures, maxFeatures, nSamples))

	rf.logger.Info("forest fitted",
		log.OperationKey, "fit",
		log.TreesKey, rf.nEstimators,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, len(classes),
		log.MaxFeaturesKey, maxFeatures,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// FitRows is Fit over a row-major table.
func (rf *RandomForestClassifier) FitRows(X [][]float64, y []string) error {
	dense, err := model.RowsToDense(modelName+".Fit", X)
	if err != nil {
		return err
	}
	return rf.Fit(dense, y)
}

func checkSample(op string, treeIdx int, idx []int, n int) error {
	if len(idx) == 0 {
		return errors.NewModelError(op, fmt.Sprintf("sampler returned no rows for tree %d", treeIdx), nil)
	}
	for _, r := range idx {
		if r < 0 || r >= n {
			return errors.NewModelError(op, fmt.Sprintf("sampler returned row %d outside [0, %d) for tree %d", r, n, treeIdx), nil)
		}
	}
	return nil
}

// bootstrapRows materialises the sampled rows as a new dataset.
func bootstrapRows(X mat.Matrix, y []string, idx []int, nFeatures int) (*mat.Dense, []string) {
	Xs := mat.NewDense(len(idx), nFeatures, nil)
	ys := make([]string, len(idx))
	row := make([]float64, nFeatures)
	for i, r := range idx {
		mat.Row(row, r, X)
		Xs.SetRow(i, row)
		ys[i] = y[r]
	}
	return Xs, ys
}

func (rf *RandomForestClassifier) resolveMaxFeatures(nFeatures int) int {
	if rf.maxFeatures == 0 {
		return max(1, int(math.Floor(math.Sqrt(float64(nFeatures)))))
	}
	if rf.maxFeatures > nFeatures {
		errors.Warn(errors.NewHyperparameterWarning("max_features", rf.maxFeatures, nFeatures,
			fmt.Sprintf("only %d features in training data", nFeatures)))
		return nFeatures
	}
	return rf.maxFeatures
}

func (rf *RandomForestClassifier) validateParams() error {
	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", rf.nEstimators)
	}
	if rf.maxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be non-negative", rf.maxDepth)
	}
	if rf.minSamplesSplit < 0 {
		return errors.NewValidationError("min_samples_split", "must be non-negative", rf.minSamplesSplit)
	}
	if !(rf.sampleRatio > 0 && rf.sampleRatio <= 1) {
		return errors.NewValidationError("sample_ratio", "must be in (0, 1]", rf.sampleRatio)
	}
	if rf.maxFeatures < 0 {
		return errors.NewValidationError("max_features", "must be non-negative", rf.maxFeatures)
	}
	if rf.sampler == nil {
		return errors.NewValidationError("sampler", "must not be nil", nil)
	}
	return nil
}

// Predict returns the majority vote of the trees for each row of X. Before
// the first successful Fit every row is UnknownLabel and the error is nil.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) ([]string, error) {
	rows, cols := model.Dims(X)
	out := make([]string, rows)

	s := rf.current.Load()
	if s == nil || rows == 0 {
		return out, nil
	}
	if cols != s.nFeatures {
		return nil, errors.NewDimensionError(modelName+".Predict", s.nFeatures, cols, 1)
	}

	parallel.ParallelizeWithThreshold(rows, predictParallelThreshold, func(start, end int) {
		row := make([]float64, cols)
		counts := make([]int, len(s.classes))
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			s.tally(row, counts)
			out[i] = s.majority(counts)
		}
	})
	return out, nil
}

// PredictRows is Predict over a row-major table.
func (rf *RandomForestClassifier) PredictRows(X [][]float64) ([]string, error) {
	if len(X) == 0 {
		return []string{}, nil
	}
	dense, err := model.RowsToDense(modelName+".Predict", X)
	if err != nil {
		return nil, err
	}
	return rf.Predict(dense)
}

// VoteShares returns, per row, the fraction of trees voting for each class.
// Columns follow Classes(). It requires a fitted forest.
func (rf *RandomForestClassifier) VoteShares(X mat.Matrix) (*mat.Dense, error) {
	s := rf.current.Load()
	if s == nil {
		return nil, errors.NewNotFittedError(modelName, "VoteShares")
	}
	rows, cols := model.Dims(X)
	if rows == 0 {
		return &mat.Dense{}, nil
	}
	if cols != s.nFeatures {
		return nil, errors.NewDimensionError(modelName+".VoteShares", s.nFeatures, cols, 1)
	}

	shares := mat.NewDense(rows, len(s.classes), nil)
	nTrees := float64(len(s.roots))
	parallel.ParallelizeWithThreshold(rows, predictParallelThreshold, func(start, end int) {
		row := make([]float64, cols)
		counts := make([]int, len(s.classes))
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			s.tally(row, counts)
			for c, n := range counts {
				shares.Set(i, c, float64(n)/nTrees)
			}
		}
	})
	return shares, nil
}

// Score returns the accuracy of Predict(X) against y.
func (rf *RandomForestClassifier) Score(X mat.Matrix, y []string) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, pred)
}

func (rf *RandomForestClassifier) IsFitted() bool {
	return rf.current.Load() != nil
}

// NEstimators returns the number of fitted trees, 0 before Fit.
func (rf *RandomForestClassifier) NEstimators() int {
	if s := rf.current.Load(); s != nil {
		return len(s.trees)
	}
	return 0
}

// Classes returns the sorted labels of the fitted forest.
func (rf *RandomForestClassifier) Classes() []string {
	if s := rf.current.Load(); s != nil {
		return append([]string(nil), s.classes...)
	}
	return nil
}

// Estimators returns the fitted trees. They are shared with the forest and
// must be treated as read-only.
func (rf *RandomForestClassifier) Estimators() []*tree.DecisionTreeClassifier {
	if s := rf.current.Load(); s != nil {
		return append([]*tree.DecisionTreeClassifier(nil), s.trees...)
	}
	return nil
}

// Stats summarises the fitted forest.
type Stats struct {
	Fitted      bool     `json:"fitted"`
	Trees       int      `json:"trees"`
	Classes     []string `json:"classes"`
	Features    int      `json:"features"`
	MaxFeatures int      `json:"max_features"`
	Samples     int      `json:"samples"`
	MeanDepth   float64  `json:"mean_depth"`
	MeanLeaves  float64  `json:"mean_leaves"`
}

func (rf *RandomForestClassifier) Stats() Stats {
	s := rf.current.Load()
	if s == nil {
		return Stats{}
	}
	st := Stats{
		Fitted:      true,
		Trees:       len(s.trees),
		Classes:     append([]string(nil), s.classes...),
		Features:    s.nFeatures,
		MaxFeatures: s.maxFeatures,
		Samples:     s.nSamples,
	}
	for _, root := range s.roots {
		st.MeanDepth += float64(tree.Depth(root))
		st.MeanLeaves += float64(tree.CountLeaves(root))
	}
	st.MeanDepth /= float64(len(s.roots))
	st.MeanLeaves /= float64(len(s.roots))
	return st
}

// GetParams returns the hyperparameters keyed by their snake_case names.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.nEstimators,
		"max_depth":         rf.maxDepth,
		"min_samples_split": rf.minSamplesSplit,
		"sample_ratio":      rf.sampleRatio,
		"max_features":      rf.maxFeatures,
		"random_state":      rf.randomState,
		"n_jobs":            rf.nJobs,
	}
}
