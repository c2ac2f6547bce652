// Package models contains the core data structures for CoreWatch.
package models

import "time"

// SensorKind identifies the physical quantity a sensor measures.
type SensorKind string

const (
	KindTemperature SensorKind = "temperature"
	KindPressure    SensorKind = "pressure"
	KindRadiation   SensorKind = "radiation"
	KindCoolantFlow SensorKind = "coolant_flow"
	KindNeutronFlux SensorKind = "neutron_flux"
	KindControlRods SensorKind = "control_rods"
	KindUnknown     SensorKind = "unknown"
)

// Status is the derived condition of a reading.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// SensorConfig describes one monitored instrument. Configs are loaded
// at startup (or on catalog reload) and never mutated afterwards.
type SensorConfig struct {
	ID        string     `yaml:"id" json:"id"`
	Kind      SensorKind `yaml:"kind" json:"kind"`
	Unit      string     `yaml:"unit" json:"unit"`
	BaseValue float64    `yaml:"base_value" json:"base_value"`
	Variance  float64    `yaml:"variance" json:"variance"`
	Threshold *float64   `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	MaxValue  *float64   `yaml:"max_value,omitempty" json:"max_value,omitempty"`
	Source    string     `yaml:"source" json:"source"`
}

// Reading is one timestamped sensor value with its derived status.
// Readings are immutable once created; a newer Reading for the same
// sensor identifier supersedes the old one.
type Reading struct {
	ID        string     `json:"id"`
	SensorID  string     `json:"sensor_id"`
	Kind      SensorKind `json:"kind"`
	Value     float64    `json:"value"`
	Unit      string     `json:"unit"`
	Status    Status     `json:"status"`
	Threshold *float64   `json:"threshold,omitempty"`
	MaxValue  *float64   `json:"max_value,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ParseSensorKind converts a string to SensorKind.
func ParseSensorKind(s string) SensorKind {
	switch s {
	case "temperature":
		return KindTemperature
	case "pressure":
		return KindPressure
	case "radiation":
		return KindRadiation
	case "coolant_flow":
		return KindCoolantFlow
	case "neutron_flux":
		return KindNeutronFlux
	case "control_rods":
		return KindControlRods
	default:
		return KindUnknown
	}
}

// ParseStatus converts a string to Status, defaulting to normal.
func ParseStatus(s string) Status {
	switch s {
	case "warning":
		return StatusWarning
	case "critical":
		return StatusCritical
	default:
		return StatusNormal
	}
}
