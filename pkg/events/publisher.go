package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler/pkg/config"
)

// RunCompletedEvent announces the end of an optimization run.
type RunCompletedEvent struct {
	RunID           string    `json:"runId"`
	SessionID       string    `json:"sessionId,omitempty"`
	Status          string    `json:"status"`
	Algorithm       string    `json:"algorithm,omitempty"`
	Score           float64   `json:"score"`
	Feasible        bool      `json:"feasible"`
	CoveragePercent float64   `json:"coveragePercent"`
	Conflicts       int       `json:"conflicts"`
	Error           string    `json:"error,omitempty"`
	CompletedAt     time.Time `json:"completedAt"`
}

// Publisher delivers run events.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, event RunCompletedEvent) error
	Close() error
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON events to a durable RabbitMQ queue through the
// default exchange.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel amqpChannel
	queue   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewPublisher connects to RabbitMQ when a URL is configured and returns a
// no-op publisher otherwise.
func NewPublisher(cfg config.EventsConfig, logger *zap.Logger) (Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RabbitMQURL == "" {
		logger.Info("rabbitmq url not set, run events disabled")
		return NopPublisher{}, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	p := newAMQPPublisher(ch, cfg, logger)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch amqpChannel, cfg config.EventsConfig, logger *zap.Logger) *AMQPPublisher {
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AMQPPublisher{channel: ch, queue: cfg.Queue, timeout: timeout, logger: logger}
}

// PublishRunCompleted sends the event as a persistent JSON message.
func (p *AMQPPublisher) PublishRunCompleted(ctx context.Context, event RunCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RunID,
		Type:         "optimization.run.completed",
		Timestamp:    event.CompletedAt,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	p.logger.Debug("run event published", zap.String("run_id", event.RunID), zap.String("queue", p.queue))
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NopPublisher drops every event.
type NopPublisher struct{}

// PublishRunCompleted implements Publisher.
func (NopPublisher) PublishRunCompleted(context.Context, RunCompletedEvent) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
