// Package producer publishes domain events to Kafka.
package producer

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"prismtrack/backend/internal/events"
)

// Kafka publishes events to one topic, keyed by org id so all events of one
// org land in order on one partition.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka returns a Kafka emitter for the given brokers and topic.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}}
}

// Emit publishes one event.
func (k *Kafka) Emit(ctx context.Context, e events.Event) error {
	payload, err := e.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.OrgID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "event-id", Value: []byte(e.ID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
