package notification

import (
	"context"

	"github.com/Jansmig/magmamath/pkg/logger"
)

// Kind is the type of message sent to a user.
type Kind string

const (
	KindWelcome Kind = "welcome"
	KindGoodbye Kind = "goodbye"
)

// Notification is one message to send in response to an event.
type Notification struct {
	EventID       string
	CorrelationID string
	EventType     string
	Kind          Kind
	UserID        string
	Email         string
	Name          string
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier stands in for an email gateway and only logs what it would send.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	logger.Ctx(ctx).Info().
		Str("component", "Notification").
		Str("kind", string(n.Kind)).
		Str("user_id", n.UserID).
		Str("email", n.Email).
		Msgf("Sending %s email", n.Kind)
	return nil
}
