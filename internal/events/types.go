// Package events provides event management functionality.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents different event types
type EventType string

const (
	ErrorOccurred EventType = "ERROR_OCCURRED"

	// Prediction lifecycle of a dashboard session
	PredictionStarted   EventType = "PREDICTION_STARTED"
	PredictionCompleted EventType = "PREDICTION_COMPLETED"
	PredictionFailed    EventType = "PREDICTION_FAILED"
	PredictionDiscarded EventType = "PREDICTION_DISCARDED"

	// Chart export
	ChartExported     EventType = "CHART_EXPORTED"
	ChartExportFailed EventType = "CHART_EXPORT_FAILED"

	SessionsSwept EventType = "SESSIONS_SWEPT"
)

// AllTypes lists every event type, for subscribers that want everything
var AllTypes = []EventType{
	ErrorOccurred,
	PredictionStarted,
	PredictionCompleted,
	PredictionFailed,
	PredictionDiscarded,
	ChartExported,
	ChartExportFailed,
	SessionsSwept,
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// SessionID returns the dashboard session the event belongs to, or "" for global events
func (e *Event) SessionID() string {
	if e == nil || e.Data == nil {
		return ""
	}
	id, _ := e.Data["session_id"].(string)
	return id
}

// MarshalJSON formats the timestamp as RFC3339
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"type":      e.Type,
		"timestamp": e.Timestamp.Format(time.RFC3339),
		"data":      e.Data,
		"module":    e.Module,
	})
}
