package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
)

// Event types published for document lifecycle changes.
const (
	TypeDocumentCreated  = "document.created"
	TypeDocumentDeleted  = "document.deleted"
	TypeSummaryGenerated = "summary.generated"
)

// Event is the payload sent to downstream consumers.
type Event struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"documentId"`
	UserID     string    `json:"userId"`
	RequestID  string    `json:"requestId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New stamps an event with the current time.
func New(eventType, documentID, userID, requestID string) Event {
	return Event{
		Type:       eventType,
		DocumentID: documentID,
		UserID:     userID,
		RequestID:  requestID,
		OccurredAt: time.Now().UTC(),
	}
}

// Encode returns the JSON representation of an event.
func Encode(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}

// Decode parses a JSON payload into an Event.
func Decode(payload []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// PublishBestEffort publishes and logs failures without returning them.
// Request outcomes never depend on event delivery.
func PublishBestEffort(ctx context.Context, p Publisher, evt Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		telemetry.Warn("events.publish_failed", map[string]any{
			"type":        evt.Type,
			"document_id": evt.DocumentID,
			"request_id":  evt.RequestID,
			"error":       err,
		})
	}
}

var _ Publisher = Nop{}
