package models

import "time"

// ScenarioDefinition is a scripted incident: an ordered list of timed
// phases. Definitions are static content loaded at startup.
type ScenarioDefinition struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Phases      []Phase `yaml:"phases" json:"phases"`
}

// Phase is one timed step of a scenario.
type Phase struct {
	Name           string               `yaml:"name" json:"name"`
	Duration       time.Duration        `yaml:"-" json:"-"`
	RawDuration    string               `yaml:"duration" json:"duration"`
	Modifications  []SensorModification `yaml:"modifications" json:"modifications"`
	AlertConditions []AlertCondition    `yaml:"alerts" json:"alerts"`
	ProcedureSteps []string             `yaml:"procedure" json:"procedure"`
}

// SensorModification is a value delta a phase applies to one sensor.
type SensorModification struct {
	SensorID       string  `yaml:"sensor_id" json:"sensor_id"`
	Delta          float64 `yaml:"delta" json:"delta"`
	StatusOverride *Status `yaml:"status,omitempty" json:"status,omitempty"`
	Reason         string  `yaml:"reason" json:"reason"`
}

// AlertCondition is an alert a phase raises on entry.
type AlertCondition struct {
	SensorID string   `yaml:"sensor_id" json:"sensor_id"`
	Severity Severity `yaml:"severity" json:"severity"`
	Message  string   `yaml:"message" json:"message"`
}

// ScenarioStatus is a point-in-time view of the orchestrator state,
// exposed over the API and in the observer snapshot.
type ScenarioStatus struct {
	Active     bool      `json:"active"`
	ScenarioID string    `json:"scenario_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	PhaseIndex int       `json:"phase_index,omitempty"`
	PhaseName  string    `json:"phase_name,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	PhaseEndsAt time.Time `json:"phase_ends_at,omitzero"`
}
