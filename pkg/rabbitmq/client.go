package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/Jansmig/magmamath/pkg/logger"
	"github.com/Jansmig/magmamath/pkg/models"
)

var (
	// ErrNotConnected is returned by Publish while the client is disconnected.
	ErrNotConnected = errors.New("messaging client is not connected to RabbitMQ")
	// ErrPublishFailed is returned when the broker rejects or cannot take a message.
	ErrPublishFailed = errors.New("failed to publish message to exchange")
)

// State is the connection state of a Client.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// PublishRecorder observes publish outcomes.
type PublishRecorder interface {
	ObservePublish(topic, status string)
}

// ClientConfig holds the broker settings of a Client.
type ClientConfig struct {
	URL            string
	Exchange       string
	ExchangeType   string
	PublishTimeout time.Duration
}

// Client owns the single broker connection and channel of a process and
// publishes enveloped events to a durable exchange. It never reconnects on
// its own: after a connection or channel close it stays Disconnected until
// Connect is called again.
type Client struct {
	cfg      ClientConfig
	dial     dialFunc
	recorder PublishRecorder

	mu    sync.Mutex
	state State
	gen   uint64
	conn  connection
	ch    channel
}

// Option configures a Client.
type Option func(*Client)

// WithRecorder reports publish outcomes to r.
func WithRecorder(r PublishRecorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a disconnected client.
func NewClient(cfg ClientConfig, opts ...Option) *Client {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	c := &Client{cfg: cfg, dial: dialAMQP}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the connection and channel and declares the exchange. A
// connection left over from an earlier Connect is closed first.
func (c *Client) Connect(ctx context.Context) error {
	l := logger.Ctx(ctx)
	l.Info().Str("component", "Messaging").Str("exchange", c.cfg.Exchange).Msg("Connecting to RabbitMQ")

	c.mu.Lock()
	defer c.mu.Unlock()

	c.release()

	conn, err := c.dial(c.cfg.URL)
	if err != nil {
		l.Error().Err(err).Str("component", "Messaging").Msg("Failed to connect to RabbitMQ")
		c.state = Disconnected
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		c.state = Disconnected
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		c.state = Disconnected
		return fmt.Errorf("enable publisher confirms: %w", err)
	}

	err = ch.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		c.state = Disconnected
		l.Error().Err(err).Str("component", "Messaging").Msg("Failed to declare exchange")
		return fmt.Errorf("declare exchange %q: %w", c.cfg.Exchange, err)
	}

	c.gen++
	c.conn, c.ch, c.state = conn, ch, Connected
	go c.watch(c.gen, "connection", conn.NotifyClose(make(chan *amqp.Error, 1)))
	go c.watch(c.gen, "channel", ch.NotifyClose(make(chan *amqp.Error, 1)))

	l.Info().Str("component", "Messaging").Str("exchange", c.cfg.Exchange).
		Msg("Successfully connected to RabbitMQ exchange")
	return nil
}

// watch flips the state to Disconnected once the observed resource closes.
func (c *Client) watch(gen uint64, what string, closed <-chan *amqp.Error) {
	amqpErr, ok := <-closed
	if ok && amqpErr != nil {
		log.Error().Str("component", "Messaging").Str("resource", what).
			Err(amqpErr).Msg("RabbitMQ error")
	} else {
		log.Warn().Str("component", "Messaging").Str("resource", what).Msg("RabbitMQ closed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.state = Disconnected
	}
}

// Publish wraps payload in an envelope with a fresh event id and publishes it
// with topic as routing key. Failures are logged and returned.
func (c *Client) Publish(ctx context.Context, topic string, payload any) error {
	l := logger.Ctx(ctx)

	c.mu.Lock()
	state, ch := c.state, c.ch
	c.mu.Unlock()

	if state != Connected || ch == nil {
		l.Error().Str("component", "Messaging").Str("topic", topic).
			Msg("Cannot publish message: not connected to RabbitMQ")
		c.observe(topic, "error")
		return ErrNotConnected
	}

	env, err := models.NewEnvelope(payload)
	if err != nil {
		c.observe(topic, "error")
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		c.observe(topic, "error")
		return fmt.Errorf("marshal envelope: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, c.cfg.PublishTimeout)
	defer cancel()

	acked, err := ch.Publish(pubCtx, c.cfg.Exchange, topic, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.EventID,
		CorrelationId: logger.CorrelationID(ctx),
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err == nil && !acked {
		err = ErrPublishFailed
	} else if err != nil {
		err = fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	if err != nil {
		l.Error().Err(err).Str("component", "Messaging").Str("topic", topic).
			Msg("Failed to publish event")
		c.observe(topic, "error")
		return err
	}

	l.Info().Str("component", "Messaging").Str("topic", topic).Str("event_id", env.EventID).
		Msg("Published event")
	c.observe(topic, "success")
	return nil
}

// Disconnect closes the channel then the connection. Errors are logged only.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.release()
	log.Info().Str("component", "Messaging").Msg("Disconnected from RabbitMQ")
}

// release closes the held channel and connection. c.mu must be held.
func (c *Client) release() {
	if c.ch != nil {
		if err := c.ch.Close(); err != nil {
			log.Error().Err(err).Str("component", "Messaging").Msg("Error closing RabbitMQ channel")
		}
		c.ch = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			log.Error().Err(err).Str("component", "Messaging").Msg("Error closing RabbitMQ connection")
		}
		c.conn = nil
	}
	c.gen++
	c.state = Disconnected
}

func (c *Client) observe(topic, status string) {
	if c.recorder != nil {
		c.recorder.ObservePublish(topic, status)
	}
}
