package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/hydras3/hydras/internal/adapter/http"
	"github.com/hydras3/hydras/internal/dataset"
	"github.com/hydras3/hydras/internal/monitor"
	"github.com/hydras3/hydras/internal/observability"
	"github.com/hydras3/hydras/internal/rules"
	"github.com/hydras3/hydras/internal/sensor"
	"github.com/hydras3/hydras/pkg/errors"
	"github.com/hydras3/hydras/sklearn/ensemble"
)

type mockMonitor struct {
	readyErr   error
	readings   []sensor.ClassifiedReading
	alerts     []monitor.Alert
	stats      monitor.ModelStats
	predictErr error
	buoy       int
}

func (m *mockMonitor) CheckReadiness(context.Context) error { return m.readyErr }
func (m *mockMonitor) Readings() []sensor.ClassifiedReading { return m.readings }
func (m *mockMonitor) Alerts() []monitor.Alert { return m.alerts }
func (m *mockMonitor) Stats() monitor.ModelStats { return m.stats }
func (m *mockMonitor) SelectedBuoy() int { return m.buoy }

// Predict labels a row Anomalous when its turbidity exceeds 250.
func (m *mockMonitor) Predict(rows [][]float64) ([]string, error) {
	if m.predictErr != nil {
		return nil, m.predictErr
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = rules.LabelNormal
		if row[4] > 250 {
			out[i] = rules.LabelAnomalous
		}
	}
	return out, nil
}

func (m *mockMonitor) SelectBuoy(id int) error {
	if id < 1 || id > 7 {
		return fmt.Errorf("unknown buoy %d", id)
	}
	m.buoy = id
	return nil
}

func newTestServer(m *mockMonitor) *httpadapter.Server {
	return httpadapter.NewServer(":0", m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(&mockMonitor{}), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(t, newTestServer(&mockMonitor{}), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(t, newTestServer(&mockMonitor{readyErr: monitor.ErrModelNotReady}), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "model not fitted", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(&mockMonitor{}), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestReadingsEndpoint(t *testing.T) {
	ts := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	m := &mockMonitor{readings: []sensor.ClassifiedReading{{
		Reading:        sensor.Reading{BuoyID: 6, Timestamp: ts, PH: 7.7, Temperature: 29.6, Conductivity: 26100, Oxygen: 5.1, Turbidity: 82},
		Classification: rules.LabelNormal,
	}}}

	rec := do(t, newTestServer(m), http.MethodGet, "/api/readings", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[{
		"buoy_id": 6,
		"timestamp": "2025-03-03T12:00:00Z",
		"pH": 7.7,
		"temperature": 29.6,
		"conductivity": 26100,
		"oxygen": 5.1,
		"turbidity": 82,
		"classification": "Normal"
	}]`, rec.Body.String())
}

func TestAlertsEndpoint(t *testing.T) {
	ts := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	m := &mockMonitor{alerts: []monitor.Alert{{
		BuoyID: 2, Timestamp: ts, Day: "2025-03-03", Variable: "turbidity", ValueRaw: 300, DeviationPct: 23.81,
	}}}

	rec := do(t, newTestServer(m), http.MethodGet, "/api/alerts", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{
		"buoy_id": 2,
		"timestamp": "2025-03-03T12:00:00Z",
		"day": "2025-03-03",
		"variable": "turbidity",
		"value_raw": 300,
		"deviation_pct": 23.81
	}]`, rec.Body.String())
}

func TestModelEndpoint(t *testing.T) {
	m := &mockMonitor{stats: monitor.ModelStats{
		Forest:         ensemble.Stats{Fitted: true, Trees: 15, Classes: []string{"Anomalous", "Normal"}, Features: 5},
		TrainingRows:   1400,
		TotalAnomalies: 3,
		LastClass:      rules.LabelNormal,
	}}

	rec := do(t, newTestServer(m), http.MethodGet, "/api/model", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1400.0, body["training_rows"])
	assert.Equal(t, 3.0, body["total_anomalies"])
	forest, ok := body["forest"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 15.0, forest["trees"])
	assert.Equal(t, true, forest["fitted"])
}

func TestPredictEndpoint(t *testing.T) {
	srv := newTestServer(&mockMonitor{})

	rec := do(t, srv, http.MethodPost, "/api/predict", `{"rows": [[7.8, 30, 26000, 5.1, 80], [7.8, 30, 26000, 5.1, 400]]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"labels": ["Normal", "Anomalous"]}`, rec.Body.String())
}

func TestPredictEndpointRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{"malformed json", `{"rows": [`, nil, http.StatusBadRequest},
		{"unknown field", `{"data": []}`, nil, http.StatusBadRequest},
		{"no rows", `{"rows": []}`, nil, http.StatusBadRequest},
		{"invalid input", `{"rows": [[1]]}`, errors.NewDimensionError("Predict", 5, 1, 1), http.StatusBadRequest},
		{"internal failure", `{"rows": [[1, 2, 3, 4, 5]]}`, fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(&mockMonitor{predictErr: tt.err}), http.MethodPost, "/api/predict", tt.body)
			assert.Equal(t, tt.code, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPredictRequiresPost(t *testing.T) {
	rec := do(t, newTestServer(&mockMonitor{}), http.MethodGet, "/api/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBuoyEndpoints(t *testing.T) {
	m := &mockMonitor{buoy: 1}
	srv := newTestServer(m)

	rec := do(t, srv, http.MethodGet, "/api/buoy", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"buoy_id": 1}`, rec.Body.String())

	rec = do(t, srv, http.MethodPut, "/api/buoy", `{"buoy_id": 6}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, m.buoy)

	rec = do(t, srv, http.MethodPut, "/api/buoy", `{"buoy_id": 9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 6, m.buoy)
}

func TestServerWithMonitor(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC))
	sim := sensor.NewSimulator(sensor.WithRandSource(rand.NewPCG(1, 2)), sensor.WithClock(clock))
	forest := ensemble.NewRandomForestClassifier(ensemble.WithNEstimators(5), ensemble.WithRandomState(7))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mon := monitor.New(forest, sim, dataset.NopStore{}, observability.NewMetricsForTesting(), logger,
		monitor.WithClock(clock), monitor.WithSamplesPerBuoy(20))
	srv := httpadapter.NewServer(":0", mon, logger)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/readyz", "").Code)

	require.NoError(t, mon.Train(context.Background()))
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/readyz", "").Code)

	rec := do(t, srv, http.MethodPost, "/api/predict", `{"rows": [[7.8, 30, 26000, 5.1, 80]]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var pred struct{ Labels []string }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pred))
	assert.Len(t, pred.Labels, 1)

	rec = do(t, srv, http.MethodPost, "/api/predict", `{"rows": [[7.8, 30]]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/readings", "")
	var readings []sensor.ClassifiedReading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &readings))
	assert.Len(t, readings, monitor.MaxReadings)
}
