// Package kafka publishes classified readings to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hydras3/hydras/internal/config"
	"github.com/hydras3/hydras/internal/sensor"
)

// Writer produces one message per classified reading, keyed by buoy id so
// each buoy's readings stay ordered within a partition.
// It implements monitor.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a producer for the configured topic.
func NewWriter(cfg config.KafkaConfig, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes the readings in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, readings ...sensor.ClassifiedReading) error {
	if len(readings) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(readings))
	for i := range readings {
		msg, err := serializeToMessage(readings[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d readings to %s: %w", len(msgs), w.writer.Topic, err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ClassifiedReading into a Kafka message.
func serializeToMessage(r sensor.ClassifiedReading) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize reading: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(r.BuoyID)),
		Value: data,
		Time:  r.Timestamp,
		Headers: []kafkago.Header{
			{Key: "classification", Value: []byte(r.Classification)},
			{Key: "read_at", Value: []byte(r.Timestamp.UTC().Format(time.RFC3339))},
		},
	}, nil
}
