package monitor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/hydras3/hydras/internal/rules"
	"github.com/hydras3/hydras/metrics"
	"github.com/hydras3/hydras/sklearn/drift"
	"github.com/hydras3/hydras/sklearn/ensemble"
)

// ModelStats describes the forest and how its recent predictions compare
// with the rule-based oracle.
type ModelStats struct {
	Forest         ensemble.Stats `json:"forest"`
	TrainingRows   int            `json:"training_rows"`
	TotalAnomalies int            `json:"total_anomalies"`
	LastClass      string         `json:"last_class"`
	SelectedBuoy   int            `json:"selected_buoy"`

	// Evaluated is the number of recent predictions the scores below cover.
	Evaluated int     `json:"evaluated"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	AUC       float64 `json:"auc"`

	Drift drift.Statistics `json:"drift"`
}

// Stats snapshots the model statistics.
func (m *Monitor) Stats() ModelStats {
	m.mu.RLock()
	st := ModelStats{
		TrainingRows:   m.trainingRows,
		TotalAnomalies: m.totalAnomalies,
		LastClass:      m.lastClass,
		Evaluated:      len(m.evalTrue),
	}
	truth := append([]string(nil), m.evalTrue...)
	pred := append([]string(nil), m.evalPred...)
	scores := append([]float64(nil), m.evalScore...)
	m.mu.RUnlock()

	st.Forest = m.forest.Stats()
	st.SelectedBuoy = m.SelectedBuoy()
	st.Drift = m.drift.Statistics()

	if len(truth) == 0 {
		return st
	}
	if acc, err := metrics.AccuracyScore(truth, pred); err == nil {
		st.Accuracy = acc
	}
	if report, err := metrics.PrecisionRecallF1(truth, pred, rules.LabelAnomalous); err == nil {
		st.Precision = report.Precision
		st.Recall = report.Recall
		st.F1 = report.F1
	}

	binary := make([]float64, len(truth))
	for i, label := range truth {
		if label == rules.LabelAnomalous {
			binary[i] = 1
		}
	}
	if auc, err := metrics.AUC(mat.NewVecDense(len(binary), binary), mat.NewVecDense(len(scores), scores)); err == nil {
		st.AUC = auc
	}
	return st
}
