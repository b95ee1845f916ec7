package pipeline

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// EventType represents the type of processing event
type EventType string

const (
	EventDocumentReceived   EventType = "document.received"
	EventDocumentClassified EventType = "document.classified"
	EventTextExtracted      EventType = "document.text_extracted"
	EventFieldsExtracted    EventType = "document.fields_extracted"
	EventDecisionMade       EventType = "document.decision_made"
	EventProcessingFailed   EventType = "processing.failed"
	// EventPatternsChanged is the external signal that the persisted pattern
	// set was edited; subscribers drop their compiled caches.
	EventPatternsChanged EventType = "patterns.changed"
)

// Event represents an event in the invoice processing pipeline
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Document  *invoice.Document      `json:"document,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// NewEvent creates a new pipeline event
func NewEvent(eventType EventType, doc *invoice.Document) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Document:  doc,
		Metadata:  make(map[string]interface{}),
	}
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("evt_%d_%s", time.Now().UnixNano(), generateRandomString(8))
}

func generateRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
