package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Jansmig/magmamath/pkg/models"
)

type recordingNotifier struct {
	sent []Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func makeDelivery(t *testing.T, key string, payload any) amqp.Delivery {
	t.Helper()
	env, err := models.NewEnvelope(payload)
	if err != nil {
		t.Fatalf("failed to build envelope: %v", err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("failed to marshal envelope: %v", err)
	}
	return amqp.Delivery{
		Body:          body,
		RoutingKey:    key,
		MessageId:     env.EventID,
		CorrelationId: "corr-001",
	}
}

func TestHandleMessage_UserCreatedSendsWelcome(t *testing.T) {
	n := &recordingNotifier{}
	consumer := NewConsumer(n)

	d := makeDelivery(t, "user.created", models.UserCreatedPayload{
		UserID: "665f1c2e8b3a4d0012345678", Email: "ann@x.com", Name: "Ann",
	})
	if err := consumer.HandleMessage(context.Background(), d); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(n.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(n.sent))
	}
	got := n.sent[0]
	want := Notification{
		EventID:       d.MessageId,
		CorrelationID: "corr-001",
		EventType:     "user.created",
		Kind:          KindWelcome,
		UserID:        "665f1c2e8b3a4d0012345678",
		Email:         "ann@x.com",
		Name:          "Ann",
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestHandleMessage_UserDeletedSendsGoodbye(t *testing.T) {
	n := &recordingNotifier{}
	consumer := NewConsumer(n)

	d := makeDelivery(t, "user.deleted", models.UserDeletedPayload{UserID: "665f1c2e8b3a4d0012345678"})
	if err := consumer.HandleMessage(context.Background(), d); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(n.sent) != 1 || n.sent[0].Kind != KindGoodbye {
		t.Fatalf("expected one goodbye notification, got %+v", n.sent)
	}
	if n.sent[0].UserID != "665f1c2e8b3a4d0012345678" {
		t.Errorf("unexpected user id %q", n.sent[0].UserID)
	}
}

func TestHandleMessage_UnknownRoutingKeyIsSkipped(t *testing.T) {
	n := &recordingNotifier{}
	consumer := NewConsumer(n)

	d := amqp.Delivery{RoutingKey: "user.updated", Body: []byte("not even json")}
	if err := consumer.HandleMessage(context.Background(), d); err != nil {
		t.Fatalf("expected unknown key to be acknowledged, got %v", err)
	}
	if len(n.sent) != 0 {
		t.Errorf("expected no notification, got %+v", n.sent)
	}
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	consumer := NewConsumer(&recordingNotifier{})

	d := amqp.Delivery{RoutingKey: "user.created", Body: []byte("{invalid json"), CorrelationId: "corr-bad"}
	if err := consumer.HandleMessage(context.Background(), d); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestHandleMessage_MissingPayload(t *testing.T) {
	consumer := NewConsumer(&recordingNotifier{})

	d := amqp.Delivery{RoutingKey: "user.deleted", Body: []byte(`{"eventId":"evt-1"}`)}
	if err := consumer.HandleMessage(context.Background(), d); err == nil {
		t.Fatal("expected error for envelope without payload, got nil")
	}
}

func TestHandleMessage_NotifierFailurePropagates(t *testing.T) {
	consumer := NewConsumer(&recordingNotifier{err: errors.New("smtp unavailable")})

	d := makeDelivery(t, "user.created", models.UserCreatedPayload{UserID: "1", Email: "a@x.com", Name: "A"})
	if err := consumer.HandleMessage(context.Background(), d); err == nil {
		t.Fatal("expected notifier error to propagate")
	}
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{}).Notify(context.Background(), Notification{Kind: KindWelcome}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
