package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Connection wraps the AMQP connection used by consumers.
type Connection struct {
	URL  string
	Conn *amqp.Connection
}

// Connect establishes a connection to RabbitMQ, retrying up to attempts times
// with delay between tries. It gives up early when ctx is cancelled.
func Connect(ctx context.Context, url string, attempts int, delay time.Duration) (*Connection, error) {
	var err error
	for i := 0; i < attempts; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			log.Info().Str("component", "Messaging").Msg("Connected to RabbitMQ")
			return &Connection{URL: url, Conn: conn}, nil
		}
		log.Warn().Err(err).Str("component", "Messaging").Dur("retry_in", delay).
			Msg("Failed to connect to RabbitMQ, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("could not connect to RabbitMQ after %d attempts: %w", attempts, err)
}

// Channel opens a new AMQP channel.
func (c *Connection) Channel() (*amqp.Channel, error) {
	return c.Conn.Channel()
}

// Close closes the connection.
func (c *Connection) Close() error {
	if c.Conn != nil {
		return c.Conn.Close()
	}
	return nil
}
