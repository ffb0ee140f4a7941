// Package hydras is a water-quality monitoring toolkit built around a
// from-scratch random forest classifier.
//
// The classifier follows a scikit-learn-like API over gonum matrices: Gini
// (or entropy) decision trees, bootstrap aggregation, and majority voting
// with a deterministic tie-break.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/hydras3/hydras/sklearn/ensemble"
//	)
//
//	func main() {
//	    X := [][]float64{{7.6, 29.5}, {7.7, 29.8}, {7.5, 38.2}, {5.1, 30.1}}
//	    y := []string{"Normal", "Normal", "Anomalous", "Anomalous"}
//
//	    forest := ensemble.NewRandomForestClassifier(
//	        ensemble.WithNEstimators(15),
//	        ensemble.WithRandomState(42),
//	    )
//	    if err := forest.FitRows(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    labels, err := forest.PredictRows([][]float64{{7.6, 29.9}})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Predictions:", labels)
//	}
//
// # Packages
//
//   - sklearn/tree: DecisionTreeClassifier, impurity functions, sealed tree nodes
//   - sklearn/ensemble: RandomForestClassifier and bootstrap samplers
//   - metrics: accuracy, precision/recall/F1, confusion matrix, AUC
//   - core/model: estimator interfaces, fitted-state bookkeeping, input validation
//   - core/parallel: chunked fan-out used for row-parallel prediction
//   - pkg/errors: structured errors on top of cockroachdb/errors
//   - pkg/log: slog-based logging with ML attribute keys
//
// The cmd/hydras daemon wires the forest to a buoy simulator, a rule-based
// oracle, dataset persistence, Prometheus metrics, an HTTP API, and an
// optional Kafka sink.
//
// # Concurrency
//
// A fitted RandomForestClassifier can serve Predict from many goroutines
// while a new Fit runs; readers see either the previous forest or the new
// one, never a mix.
package hydras
