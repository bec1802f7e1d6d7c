package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the lifecycle services after their transaction
// commits. Handlers translate them into queued jobs or socket pushes.
const (
	TypeEmailSend  = "email.send"
	TypeFileAction = "file.action"
	TypeWSNotify   = "ws.notify"
	TypeWSComment  = "ws.comment"
)

// SideEffectEvent represents a post-commit side effect request. It carries
// the effect-specific data as JSON so the emitter has no direct dependency
// on the jobs or ws packages.
type SideEffectEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates which side effect should be performed
	Type string `json:"type"`

	// Payload contains the effect-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *SideEffectEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewSideEffectEvent creates a new SideEffectEvent with the specified type and payload.
func NewSideEffectEvent(eventType string, payload interface{}) (*SideEffectEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &SideEffectEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *SideEffectEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *SideEffectEvent) error
}
