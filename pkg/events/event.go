package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the chat gateway
const (
	TypeEndpointLocked = "CHAT_ENDPOINT_LOCKED"
	TypeEndpointForced = "CHAT_ENDPOINT_FORCED"
	TypeSessionReset   = "CHAT_SESSION_RESET"
	TypeApiCall        = "CHAT_API_CALL"
)

// Event is anything that can go on the bus
type Event interface {
	EventID() string
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	ID         string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// New stamps an event with a fresh id and the current time
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
