package models

import "time"

// Severity represents alert severity level.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a threshold-breach record for one sensor. At most one
// active alert exists per sensor identifier at a time; acknowledgment
// deactivates the alert without deleting it.
type Alert struct {
	ID        string    `json:"id"`
	SensorID  string    `json:"sensor_id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseSeverity converts a string to Severity.
func ParseSeverity(s string) Severity {
	switch s {
	case "critical":
		return SeverityCritical
	default:
		return SeverityWarning
	}
}

// SeverityForStatus maps a derived reading status to an alert severity.
// Only warning and critical statuses produce alerts.
func SeverityForStatus(st Status) (Severity, bool) {
	switch st {
	case StatusWarning:
		return SeverityWarning, true
	case StatusCritical:
		return SeverityCritical, true
	default:
		return "", false
	}
}
