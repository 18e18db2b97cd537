// Package kafka carries the task queue: paused jobs publish continuation
// messages, workers consume them, and poison messages land on a dead-letter
// topic instead of blocking the partition.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topic constants.
const (
	TopicJobContinuation = "job.continuation"
	TopicLexiconImported = "lexicon.imported"
	TopicDeadLetter      = "dead_letter.jobs"
)

// EventEnvelope standardizes messages across topics.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a payload.
func NewEnvelope(eventType string, payload any) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        "lexipipe",
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "1.0",
		Payload:       raw,
	}, nil
}

// LexiconImportedPayload announces a completed source-file import.
type LexiconImportedPayload struct {
	Object   string `json:"object"`
	Source   string `json:"source"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
}
