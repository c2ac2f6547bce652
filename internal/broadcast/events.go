// Package broadcast fans telemetry events out to connected dashboard
// observers over WebSocket.
package broadcast

import (
	"github.com/good-yellow-bee/corewatch/internal/models"
)

// EventType discriminates the wire envelopes pushed to observers.
type EventType string

const (
	EventInitialData    EventType = "initial_data"
	EventSensorUpdate   EventType = "sensor_update"
	EventAlertUpdate    EventType = "alert_update"
	EventRecommendation EventType = "ai_recommendation"
	EventSystemLog      EventType = "system_log"
)

// InitialDataEvent is the full state snapshot sent to an observer
// before any incremental event.
type InitialDataEvent struct {
	Type            EventType                  `json:"type"`
	Sensors         []models.Reading           `json:"sensors"`
	Alerts          []*models.Alert            `json:"alerts"`
	Recommendations []*models.Recommendation   `json:"recommendations"`
	Logs            []*models.SystemLogEntry   `json:"logs"`
	Connections     []*models.ServerConnection `json:"connections"`
	Scenario        *models.ScenarioStatus     `json:"scenario,omitempty"`
}

// SensorUpdateEvent carries one new reading.
type SensorUpdateEvent struct {
	Type EventType `json:"type"`
	models.Reading
}

// AlertUpdateEvent carries a raised or acknowledged alert.
type AlertUpdateEvent struct {
	Type EventType `json:"type"`
	models.Alert
}

// RecommendationEvent carries one analysis recommendation.
type RecommendationEvent struct {
	Type EventType `json:"type"`
	models.Recommendation
}

// SystemLogEvent carries one system log entry.
type SystemLogEvent struct {
	Type EventType `json:"type"`
	models.SystemLogEntry
}
