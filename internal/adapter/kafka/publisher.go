// Package kafka publishes catalog creation events to a topic. The feed is an
// optional integration surface; the reconciliation run never depends on it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mhornych/chmi-station-catalog/internal/config"
	"github.com/mhornych/chmi-station-catalog/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces creation events to the configured events topic.
// It implements pipeline.EventSink.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishCreations serializes and publishes the creation events of one
// committed run in a single WriteMessages call.
func (p *Publisher) PublishCreations(ctx context.Context, events []domain.CreationEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish creation events: %w", err)
	}
	p.logger.Debug("creation events published", "count", len(events))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a CreationEvent into a Kafka message keyed by
// the created entity's natural key.
func serializeToMessage(event domain.CreationEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize creation event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(eventKey(event)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(event.Kind)},
			{Key: "created_at", Value: []byte(event.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}

// eventKey builds the message key so consumers can partition and compact by
// entity: kind plus category, station, and abbreviation where present.
func eventKey(event domain.CreationEvent) string {
	key := event.Kind
	if event.Category != "" {
		key += ":" + string(event.Category)
	}
	if event.WSI != "" {
		key += ":" + event.WSI
	}
	if event.Abbreviation != "" {
		key += ":" + event.Abbreviation
	}
	return key
}
