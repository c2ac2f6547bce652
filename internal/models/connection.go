package models

import "time"

// ConnectionStatus represents the reachability of a data source.
type ConnectionStatus string

const (
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionError        ConnectionStatus = "error"
)

// ServerConnection tracks the last known state of one data source.
// Exactly one row exists per source label; heartbeats upsert it.
type ServerConnection struct {
	Source        string           `json:"source"`
	Status        ConnectionStatus `json:"status"`
	LastHeartbeat time.Time        `json:"last_heartbeat"`
}
