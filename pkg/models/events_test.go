package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEventTypeConstants(t *testing.T) {
	tests := []struct {
		name     string
		et       EventType
		expected string
	}{
		{"user created", EventUserCreated, "user.created"},
		{"user deleted", EventUserDeleted, "user.deleted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.et) != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, string(tt.et))
			}
		})
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	payload := map[string]any{
		"userId": "65f1c2a9e4b0a1b2c3d4e5f6",
		"email":  "ann@x.com",
		"name":   "Ann",
		"nested": map[string]any{"n": float64(1), "ok": true},
	}

	env, err := NewEnvelope(payload)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}

	body, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}

	id, ok := decoded["eventId"].(string)
	if !ok || id == "" {
		t.Fatalf("expected non-empty eventId string, got %#v", decoded["eventId"])
	}
	if !reflect.DeepEqual(decoded["payload"], payload) {
		t.Errorf("payload mismatch:\n got %#v\nwant %#v", decoded["payload"], payload)
	}
}

func TestNewEnvelopeFreshEventID(t *testing.T) {
	p := UserDeletedPayload{UserID: "same"}

	a, err := NewEnvelope(p)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	b, err := NewEnvelope(p)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if a.EventID == b.EventID {
		t.Errorf("expected distinct event ids for identical payloads, got %q twice", a.EventID)
	}
}

func TestNewEnvelopeUnmarshalablePayload(t *testing.T) {
	if _, err := NewEnvelope(map[string]any{"ch": make(chan int)}); err == nil {
		t.Fatal("expected error for unmarshalable payload")
	}
}

func TestDecodePayload(t *testing.T) {
	env, err := NewEnvelope(UserCreatedPayload{UserID: "u1", Email: "a@b.c", Name: "Ab"})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}

	got, err := DecodePayload[UserCreatedPayload](env)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if got.UserID != "u1" || got.Email != "a@b.c" || got.Name != "Ab" {
		t.Errorf("unexpected payload: %+v", got)
	}

	if _, err := DecodePayload[UserCreatedPayload](Envelope{Payload: json.RawMessage(`"nope"`)}); err == nil {
		t.Error("expected error decoding a string payload into a struct")
	}
}
