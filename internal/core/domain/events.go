package domain

import "time"

// Event types broadcast to realtime clients.
const (
	EventLandmarkCreated   = "landmark_created"
	EventLandmarkUpdated   = "landmark_updated"
	EventLandmarkDeleted   = "landmark_deleted"
	EventAnalysisCompleted = "analysis_completed"
	EventRealtimeAnalysis  = "realtime_analysis"
	EventDataImported      = "data_imported"
)

// Event is a domain notification published to the message broker.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}
