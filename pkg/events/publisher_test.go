package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler/pkg/config"
)

type channelStub struct {
	key      string
	msg      amqp.Publishing
	deadline bool
	err      error
	closed   bool
}

func (c *channelStub) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	_, c.deadline = ctx.Deadline()
	c.key = key
	c.msg = msg
	return c.err
}

func (c *channelStub) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisherSendsPersistentJSON(t *testing.T) {
	ch := &channelStub{}
	p := newAMQPPublisher(ch, config.EventsConfig{Queue: "runs", PublishTimeout: time.Second}, zap.NewNop())
	event := RunCompletedEvent{RunID: "run-1", Status: "completed", Score: 990.5, Feasible: true, CompletedAt: time.Unix(1700000000, 0).UTC()}

	require.NoError(t, p.PublishRunCompleted(context.Background(), event))

	assert.Equal(t, "runs", ch.key)
	assert.True(t, ch.deadline)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "run-1", ch.msg.MessageId)

	var decoded RunCompletedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, event, decoded)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisherWrapsChannelErrors(t *testing.T) {
	ch := &channelStub{err: errors.New("channel closed")}
	p := newAMQPPublisher(ch, config.EventsConfig{Queue: "runs"}, zap.NewNop())

	err := p.PublishRunCompleted(context.Background(), RunCompletedEvent{RunID: "run-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	p, err := NewPublisher(config.EventsConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.PublishRunCompleted(context.Background(), RunCompletedEvent{}))
}
