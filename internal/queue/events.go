package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/celine-eu/rec-registry/pkg/logger"
)

// CommunityReplacedEvent is published after every committed import, so
// downstream consumers (billing, simulation, dashboards) can refresh their
// view of the community graph.
type CommunityReplacedEvent struct {
	CommunityKey string         `json:"community_key"`
	Deleted      map[string]int `json:"deleted"`
	Inserted     map[string]int `json:"inserted"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// Publisher fans registry events out over a topic exchange. A nil Publisher
// is valid and drops everything, so callers never need to branch on whether
// the broker is configured.
type Publisher struct {
	ch *amqp091.Channel
}

// NewPublisher opens a channel and declares the registry_events exchange.
func NewPublisher(conn *amqp091.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // autoDelete
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

// PublishCommunityReplaced emits a community.replaced event. Failures are
// logged, never surfaced: event delivery is best-effort and must not fail an
// already-committed import.
func (p *Publisher) PublishCommunityReplaced(ctx context.Context, event CommunityReplacedEvent) {
	if p == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode community.replaced event", "community", event.CommunityKey, "err", err)
		return
	}
	err = p.ch.PublishWithContext(
		ctx,
		ExchangeName,
		"community.replaced",
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		logger.Error("Failed to publish community.replaced event", "community", event.CommunityKey, "err", err)
	}
}

// Close releases the underlying channel.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.ch.Close()
}
