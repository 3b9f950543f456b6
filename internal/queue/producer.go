package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pathwise/progression/internal/domain"
)

// Producer publishes domain events to the event queue
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishEvent publishes a domain event to the event queue
func (p *Producer) PublishEvent(ctx context.Context, event domain.Event) error {
	msg, err := NewEventMessage(event)
	if err != nil {
		return err
	}

	if err := p.conn.PublishJSON(ctx, EventQueueName, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("published event",
		"event_id", msg.ID,
		"type", msg.Type,
		"aggregate_id", msg.AggregateID,
	)

	return nil
}

// BridgeDispatcher forwards every locally dispatched event to the broker.
// Failures are logged and swallowed: the triggering engine operation has
// already committed and must not fail because the broker is down.
func (p *Producer) BridgeDispatcher(dispatcher *domain.EventDispatcher) {
	dispatcher.SubscribeAll(func(event domain.Event) {
		if err := p.PublishEvent(context.Background(), event); err != nil {
			slog.Warn("event publish failed",
				"event_id", event.EventID(),
				"type", event.EventType(),
				"error", err,
			)
		}
	})
}
