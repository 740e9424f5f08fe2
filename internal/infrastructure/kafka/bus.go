// Package kafka publishes workflow events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/closet-hub/closet-hub/internal/domain/event"
)

// Bus implements event.Bus on top of a Kafka producer. Records are
// keyed by the approval record id so all events for one submission land
// on the same partition, in order.
type Bus struct {
	client *kgo.Client
	topic  string
	logger zerolog.Logger
}

// NewBus connects a producer to the given brokers.
func NewBus(brokers []string, topic string, logger zerolog.Logger) (*Bus, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Bus{
		client: client,
		topic:  topic,
		logger: logger.With().Str("service", "kafka").Logger(),
	}, nil
}

// Publish produces one event synchronously.
func (b *Bus) Publish(ctx context.Context, ev event.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(ev.RecordID),
		Value: value,
	}
	if err := b.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce event: %w", err)
	}
	b.logger.Debug().
		Str("recordId", ev.RecordID).
		Str("type", string(ev.Type)).
		Msg("event produced")
	return nil
}

// Close flushes outstanding records and releases the producer.
func (b *Bus) Close() {
	b.client.Close()
}
