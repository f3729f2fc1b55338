package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (f *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = append(f.nacked, tag)
	f.requeue = append(f.requeue, requeue)
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

type consumeRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *consumeRecorder) ObserveConsume(topic, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, topic+":"+status)
}

func delivery(ack amqp.Acknowledger, tag uint64, key string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, RoutingKey: key, MessageId: "evt"}
}

func TestServe_AcksOnSuccessAndNacksOnError(t *testing.T) {
	ack := &fakeAcknowledger{}
	rec := &consumeRecorder{}
	msgs := make(chan amqp.Delivery, 2)
	msgs <- delivery(ack, 1, "user.created")
	msgs <- delivery(ack, 2, "user.deleted")
	close(msgs)

	handler := func(_ context.Context, d amqp.Delivery) error {
		if d.RoutingKey == "user.deleted" {
			return errors.New("smtp down")
		}
		return nil
	}

	Serve(context.Background(), msgs, ConsumerConfig{ConsumerName: "Notification", Recorder: rec}, handler)

	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeue, "failed messages go to the dead-letter queue")
	assert.Equal(t, []string{"user.created:ack", "user.deleted:nack"}, rec.entries)
}

func TestServe_HandlerSeesDeliveryLoggerContext(t *testing.T) {
	msgs := make(chan amqp.Delivery, 1)
	msgs <- delivery(&fakeAcknowledger{}, 1, "user.created")
	close(msgs)

	var gotCtx context.Context
	Serve(context.Background(), msgs, ConsumerConfig{}, func(ctx context.Context, _ amqp.Delivery) error {
		gotCtx = ctx
		return nil
	})

	require.NotNil(t, gotCtx)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	msgs := make(chan amqp.Delivery)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		Serve(ctx, msgs, ConsumerConfig{}, func(context.Context, amqp.Delivery) error { return nil })
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
