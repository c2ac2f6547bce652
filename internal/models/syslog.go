package models

import "time"

// LogLevel represents the severity of a system log entry.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// SystemLogEntry is one append-only operational log record.
type SystemLogEntry struct {
	ID        string    `json:"id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseLogLevel converts a string to LogLevel.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "warning", "warn":
		return LevelWarning
	case "error", "err":
		return LevelError
	default:
		return LevelInfo
	}
}
