package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// EventType represents the routing key of a user event.
type EventType string

const (
	EventUserCreated EventType = "user.created"
	EventUserDeleted EventType = "user.deleted"
)

// Envelope wraps every message published to the exchange.
type Envelope struct {
	EventID string          `json:"eventId"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope serializes payload and stamps it with a fresh event id.
func NewEnvelope(payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal event payload: %w", err)
	}
	return Envelope{
		EventID: uuid.NewString(),
		Payload: raw,
	}, nil
}

// DecodePayload unmarshals the envelope payload into T.
func DecodePayload[T any](e Envelope) (T, error) {
	var out T
	if err := json.Unmarshal(e.Payload, &out); err != nil {
		return out, fmt.Errorf("decode event payload: %w", err)
	}
	return out, nil
}

// UserCreatedPayload is carried by user.created events.
type UserCreatedPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// UserDeletedPayload is carried by user.deleted events.
type UserDeletedPayload struct {
	UserID string `json:"userId"`
}
