package domain

import "time"

type EventType string

const (
	EventFileDetected EventType = "file_detected"
	EventProgress     EventType = "progress"
	EventStatus       EventType = "status"
	EventError        EventType = "error"
)

// Event is one pipeline transition notification. Events are fire-and-forget;
// subscriber failures never fail the pipeline.
type Event struct {
	Type       EventType   `json:"type"`
	Hash       string      `json:"hash"`
	Filename   string      `json:"filename,omitempty"`
	Message    string      `json:"message,omitempty"`
	Step       int         `json:"step,omitempty"`
	TotalSteps int         `json:"total_steps,omitempty"`
	State      *StagedItem `json:"state,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	EmittedAt  time.Time   `json:"emitted_at"`
}
