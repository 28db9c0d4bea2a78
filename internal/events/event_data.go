package events

import "encoding/json"

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PredictionStartedData contains data for PredictionStarted events
type PredictionStartedData struct {
	SessionID string `json:"session_id"`
	Ticker    string `json:"ticker"`
	Seq       uint64 `json:"seq"`
}

// EventType returns the event type for PredictionStartedData
func (d *PredictionStartedData) EventType() EventType {
	return PredictionStarted
}

// PredictionCompletedData contains data for PredictionCompleted events
type PredictionCompletedData struct {
	SessionID   string `json:"session_id"`
	Ticker      string `json:"ticker"`
	Seq         uint64 `json:"seq"`
	ShortPoints int    `json:"short_points"`
	FullPoints  int    `json:"full_points"`
	DurationMs  int64  `json:"duration_ms"`
}

// EventType returns the event type for PredictionCompletedData
func (d *PredictionCompletedData) EventType() EventType {
	return PredictionCompleted
}

// PredictionFailedData contains data for PredictionFailed events
type PredictionFailedData struct {
	SessionID string `json:"session_id"`
	Ticker    string `json:"ticker"`
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	Error     string `json:"error"`
}

// EventType returns the event type for PredictionFailedData
func (d *PredictionFailedData) EventType() EventType {
	return PredictionFailed
}

// PredictionDiscardedData is emitted when a completion arrives for a superseded request
type PredictionDiscardedData struct {
	SessionID  string `json:"session_id"`
	Ticker     string `json:"ticker"`
	Seq        uint64 `json:"seq"`
	CurrentSeq uint64 `json:"current_seq"`
}

// EventType returns the event type for PredictionDiscardedData
func (d *PredictionDiscardedData) EventType() EventType {
	return PredictionDiscarded
}

// ChartExportedData contains data for ChartExported events
type ChartExportedData struct {
	SessionID string `json:"session_id"`
	Window    string `json:"window"`
	Filename  string `json:"filename"`
	Bytes     int    `json:"bytes"`
}

// EventType returns the event type for ChartExportedData
func (d *ChartExportedData) EventType() EventType {
	return ChartExported
}

// ChartExportFailedData contains data for ChartExportFailed events
type ChartExportFailedData struct {
	SessionID string `json:"session_id"`
	Window    string `json:"window"`
	Error     string `json:"error"`
}

// EventType returns the event type for ChartExportFailedData
func (d *ChartExportFailedData) EventType() EventType {
	return ChartExportFailed
}

// SessionsSweptData contains data for SessionsSwept events
type SessionsSweptData struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

// EventType returns the event type for SessionsSweptData
func (d *SessionsSweptData) EventType() EventType {
	return SessionsSwept
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// convertEventDataToMap flattens typed data into the map carried by Event
func convertEventDataToMap(data EventData) map[string]interface{} {
	if data == nil {
		return nil
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}
	return result
}
