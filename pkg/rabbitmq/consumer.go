package rabbitmq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// ConsumerConfig holds configuration for setting up a consumer.
type ConsumerConfig struct {
	Exchange     string
	ExchangeType string
	QueueName    string
	DLQName      string
	BindingKeys  []string
	ConsumerName string
	Prefetch     int
	Recorder     ConsumeRecorder
}

// ConsumeRecorder observes the outcome of every delivery.
type ConsumeRecorder interface {
	ObserveConsume(topic, status string)
}

// MessageHandler processes a delivered message.
// Return nil to ack, return an error to nack without requeue (dead-letter).
type MessageHandler func(ctx context.Context, delivery amqp.Delivery) error

// SetupConsumer declares the exchange, the dead-letter queue and the durable
// main queue, binds the main queue with cfg.BindingKeys and starts consuming
// in manual-ack mode. The returned channel is closed once consumption stops,
// either because ctx was cancelled or because the broker closed the channel.
func SetupConsumer(ctx context.Context, conn *Connection, cfg ConsumerConfig, handler MessageHandler) (<-chan struct{}, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	// Declare the exchange (idempotent)
	err = ch.ExchangeDeclare(
		cfg.Exchange,
		cfg.ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, err
	}

	// Declare DLQ
	_, err = ch.QueueDeclare(
		cfg.DLQName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, err
	}

	// Declare main queue with DLQ settings
	args := amqp.Table{
		"x-dead-letter-exchange":    "",          // default exchange
		"x-dead-letter-routing-key": cfg.DLQName, // route to DLQ
	}

	_, err = ch.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		args,
	)
	if err != nil {
		return nil, err
	}

	for _, key := range cfg.BindingKeys {
		if err := ch.QueueBind(cfg.QueueName, key, cfg.Exchange, false, nil); err != nil {
			return nil, err
		}
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}

	msgs, err := ch.Consume(
		cfg.QueueName,
		cfg.ConsumerName,
		false, // auto-ack = false (manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer ch.Close()
		Serve(ctx, msgs, cfg, handler)
	}()

	log.Info().Str("component", cfg.ConsumerName).Str("queue", cfg.QueueName).
		Strs("binding_keys", cfg.BindingKeys).Msg("Consumer started")
	return done, nil
}

// Serve runs handler over msgs until ctx is cancelled or msgs is closed,
// acknowledging each delivery exactly once.
func Serve(ctx context.Context, msgs <-chan amqp.Delivery, cfg ConsumerConfig, handler MessageHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn().Str("component", cfg.ConsumerName).Msg("Delivery channel closed")
				return
			}
			handle(ctx, msg, cfg, handler)
		}
	}
}

func handle(ctx context.Context, msg amqp.Delivery, cfg ConsumerConfig, handler MessageHandler) {
	l := log.With().Str("component", cfg.ConsumerName).
		Str("routing_key", msg.RoutingKey).
		Str("message_id", msg.MessageId).
		Str("correlation_id", msg.CorrelationId).
		Logger()
	l.Debug().Msg("Received message")

	status := "ack"
	if err := handler(l.WithContext(ctx), msg); err != nil {
		l.Error().Err(err).Msg("Error processing message, nacking to dead-letter queue")
		status = "nack"
		if nackErr := msg.Nack(false, false); nackErr != nil {
			l.Error().Err(nackErr).Msg("Failed to nack message")
		}
	} else if ackErr := msg.Ack(false); ackErr != nil {
		l.Error().Err(ackErr).Msg("Failed to ack message")
	}

	if cfg.Recorder != nil {
		cfg.Recorder.ObserveConsume(msg.RoutingKey, status)
	}
}
