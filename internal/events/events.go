package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"order-composer/internal/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Type names an order lifecycle event.
type Type string

const (
	TypeItemsChanged Type = "order.items_changed"
	TypeActivated    Type = "order.activated"
)

// OrderEvent is published after a committed change to an order.
type OrderEvent struct {
	Type       Type      `json:"type"`
	OrderIDs   []string  `json:"orderIds"`
	Affected   int       `json:"affected"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewItemsChanged builds an items-changed event for the given orders.
func NewItemsChanged(orderIDs []uuid.UUID, affected int) OrderEvent {
	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}
	return OrderEvent{Type: TypeItemsChanged, OrderIDs: ids, Affected: affected, OccurredAt: time.Now().UTC()}
}

// NewActivated builds an activation event.
func NewActivated(orderID uuid.UUID) OrderEvent {
	return OrderEvent{Type: TypeActivated, OrderIDs: []string{orderID.String()}, OccurredAt: time.Now().UTC()}
}

// Publisher delivers order events. Publish is called after commit, so a
// failure never undoes the change it describes.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewPublisher returns a Kafka publisher when enabled in cfg and a no-op
// publisher otherwise.
func NewPublisher(cfg config.KafkaConfig, logger zerolog.Logger) Publisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		return NewNopPublisher()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("order events will be published to kafka")

	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(writer messageWriter, logger zerolog.Logger) *kafkaPublisher {
	return &kafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Publish writes the event keyed by its first order ID so events of one
// order stay on one partition.
func (p *kafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	var key []byte
	if len(event.OrderIDs) > 0 {
		key = []byte(event.OrderIDs[0])
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: payload, Time: event.OccurredAt})
	if err != nil {
		p.logger.Error().Err(err).Str("type", string(event.Type)).Msg("failed to publish order event")
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	p.logger.Debug().Str("type", string(event.Type)).Strs("order_ids", event.OrderIDs).Msg("order event published")
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (nopPublisher) Close() error                              { return nil }
