package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventCandidateParsed = "candidate.parsed"
)

// Exchange names
const (
	ExchangeCandidateEvents = "candidate.events"
)

// Event is the envelope every message on the bus carries
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// CandidateParsedEvent is published after a resume has been extracted and stored
type CandidateParsedEvent struct {
	CandidateID      int64    `json:"candidate_id"`
	SourceFilename   string   `json:"source_filename"`
	Name             *string  `json:"name,omitempty"`
	Email            *string  `json:"email,omitempty"`
	Skills           []string `json:"skills"`
	Warnings         []string `json:"warnings,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}
