package models

import (
	"time"

	"github.com/specfoundry/design-orchestrator/internal/rlloop"
)

// TrainingEventType identifies a WebSocket training stream event
type TrainingEventType string

const (
	EventTypeSessionStarted TrainingEventType = "session.started"
	EventTypeIteration      TrainingEventType = "session.iteration"
	EventTypeComplete       TrainingEventType = "session.complete"
	EventTypeError          TrainingEventType = "session.error"
)

// TrainingEvent is one message on the live training WebSocket stream
type TrainingEvent struct {
	Type      TrainingEventType       `json:"type"`
	SessionID string                  `json:"session_id"`
	Iteration *rlloop.IterationRecord `json:"iteration,omitempty"`
	Insights  *rlloop.Insights        `json:"insights,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}
