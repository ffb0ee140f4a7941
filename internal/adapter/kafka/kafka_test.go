package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydras3/hydras/internal/config"
	"github.com/hydras3/hydras/internal/sensor"
)

func TestSerializeToMessage(t *testing.T) {
	ts := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	r := sensor.ClassifiedReading{
		Reading: sensor.Reading{
			BuoyID: 6, Timestamp: ts, PH: 7.7, Temperature: 29.6, Conductivity: 26100, Oxygen: 5.1, Turbidity: 312.4,
		},
		Classification: "Anomalous",
	}

	msg, err := serializeToMessage(r)
	require.NoError(t, err)

	assert.Equal(t, []byte("6"), msg.Key)
	assert.Equal(t, ts, msg.Time)
	assert.Contains(t, string(msg.Value), `"classification":"Anomalous"`)
	assert.Contains(t, string(msg.Value), `"turbidity":312.4`)

	var decoded sensor.ClassifiedReading
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, r, decoded)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "classification", msg.Headers[0].Key)
	assert.Equal(t, []byte("Anomalous"), msg.Headers[0].Value)
	assert.Equal(t, "read_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(ts.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessageRejectsNonFinite(t *testing.T) {
	r := sensor.ClassifiedReading{Reading: sensor.Reading{BuoyID: 1, PH: math.NaN()}}

	_, err := serializeToMessage(r)
	assert.ErrorContains(t, err, "serialize reading")
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "readings"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer func() { _ = w.Close() }()

	assert.Equal(t, "readings", w.writer.Topic)
	assert.Equal(t, "localhost:9092", w.writer.Addr.String())
}

func TestPublishNothing(t *testing.T) {
	w := NewWriter(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "readings"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer func() { _ = w.Close() }()

	assert.NoError(t, w.Publish(context.Background()))
}
