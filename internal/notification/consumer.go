// Package notification consumes user lifecycle events and sends the matching
// user notifications.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Jansmig/magmamath/pkg/logger"
	"github.com/Jansmig/magmamath/pkg/models"
)

// Consumer dispatches user events to a Notifier by routing key.
type Consumer struct {
	notifier Notifier
}

// NewConsumer creates a new notification consumer.
func NewConsumer(n Notifier) *Consumer {
	return &Consumer{notifier: n}
}

// HandleMessage processes one delivery. Unknown routing keys are logged and
// acknowledged; any returned error dead-letters the message.
func (c *Consumer) HandleMessage(ctx context.Context, delivery amqp.Delivery) error {
	l := logger.Ctx(ctx)

	eventType := models.EventType(delivery.RoutingKey)
	if eventType != models.EventUserCreated && eventType != models.EventUserDeleted {
		l.Warn().Str("component", "Notification").Str("routing_key", delivery.RoutingKey).
			Msg("No handler for routing key, skipping")
		return nil
	}

	var env models.Envelope
	if err := json.Unmarshal(delivery.Body, &env); err != nil {
		l.Error().Err(err).Str("component", "Notification").Msg("Failed to unmarshal envelope")
		return fmt.Errorf("decode envelope: %w", err)
	}

	if eventType == models.EventUserCreated {
		return c.handleUserCreated(ctx, delivery, env)
	}
	return c.handleUserDeleted(ctx, delivery, env)
}

func (c *Consumer) handleUserCreated(ctx context.Context, d amqp.Delivery, env models.Envelope) error {
	payload, err := models.DecodePayload[models.UserCreatedPayload](env)
	if err != nil {
		return err
	}
	logger.Ctx(ctx).Info().Str("component", "Notification").Str("event_id", env.EventID).
		RawJSON("payload", env.Payload).Msg("Received user.created event")

	return c.notifier.Notify(ctx, Notification{
		EventID:       env.EventID,
		CorrelationID: d.CorrelationId,
		EventType:     d.RoutingKey,
		Kind:          KindWelcome,
		UserID:        payload.UserID,
		Email:         payload.Email,
		Name:          payload.Name,
	})
}

func (c *Consumer) handleUserDeleted(ctx context.Context, d amqp.Delivery, env models.Envelope) error {
	payload, err := models.DecodePayload[models.UserDeletedPayload](env)
	if err != nil {
		return err
	}
	logger.Ctx(ctx).Info().Str("component", "Notification").Str("event_id", env.EventID).
		RawJSON("payload", env.Payload).Msg("Received user.deleted event")

	return c.notifier.Notify(ctx, Notification{
		EventID:       env.EventID,
		CorrelationID: d.CorrelationId,
		EventType:     d.RoutingKey,
		Kind:          KindGoodbye,
		UserID:        payload.UserID,
	})
}
