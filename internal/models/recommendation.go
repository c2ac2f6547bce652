package models

import "time"

// Priority represents recommendation priority.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityInfo   Priority = "info"
)

// Category classifies what a recommendation is about.
type Category string

const (
	CategoryAnomaly      Category = "anomaly"
	CategoryOptimization Category = "optimization"
	CategoryPerformance  Category = "performance"
	CategoryMaintenance  Category = "maintenance"
	CategorySafety       Category = "safety"
)

// Recommendation is an analysis result shown on the dashboard.
// Immutable once created; consumers read a bounded recent window.
type Recommendation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Confidence  int       `json:"confidence"` // 0-100
	Category    Category  `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClampConfidence bounds a confidence value to the valid 0-100 range.
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// ParsePriority converts a string to Priority.
func ParsePriority(s string) Priority {
	switch s {
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	case "low":
		return PriorityLow
	default:
		return PriorityInfo
	}
}
