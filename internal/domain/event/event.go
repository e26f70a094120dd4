package event

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event published after a committed transition
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	SubmissionID  int64                  `json:"submission_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, submissionID int64, payload map[string]interface{}) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		SubmissionID:  submissionID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, submissionID int64, payload map[string]interface{}, correlationID string) *Event {
	evt := NewEvent(eventType, submissionID, payload)
	evt.CorrelationID = correlationID
	return evt
}

// WithPayload returns a new Event with an added payload key-value pair (immutable operation)
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	return &Event{
		ID:            e.ID,
		Type:          e.Type,
		SubmissionID:  e.SubmissionID,
		Payload:       newPayload,
		Timestamp:     e.Timestamp,
		CorrelationID: e.CorrelationID,
	}
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
