package log

// Model identification.
const (
	ModelNameKey = "model.name"
	OperationKey = "ml.operation"
	ComponentKey = "ml.component"
)

// Training data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"
)

// Forest and tree hyperparameters.
const (
	TreesKey           = "forest.trees"
	TreeIndexKey       = "forest.tree_index"
	MaxDepthKey        = "tree.max_depth"
	MinSamplesSplitKey = "tree.min_samples_split"
	MaxFeaturesKey     = "tree.max_features"
	SampleRatioKey     = "forest.sample_ratio"
	RandomSeedKey      = "config.random_seed"
	NJobsKey           = "config.n_jobs"
	DepthKey           = "tree.depth"
	LeavesKey          = "tree.leaves"
)

// Performance and evaluation.
const (
	DurationMsKey = "perf.duration_ms"
	AccuracyKey   = "metrics.accuracy"
	PredsKey      = "preds.count"
)

// Monitoring service.
const (
	BuoyIDKey    = "buoy.id"
	LabelKey     = "reading.label"
	PredictedKey = "reading.predicted"
	VariableKey  = "alert.variable"
	StoreKey     = "store.kind"
	TopicKey     = "kafka.topic"
)
