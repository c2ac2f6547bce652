package health

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteChecker checks SQLite database connectivity.
type SQLiteChecker struct {
	db *sql.DB
}

// NewSQLiteChecker creates a new SQLite health checker.
func NewSQLiteChecker(db *sql.DB) *SQLiteChecker {
	return &SQLiteChecker{db: db}
}

// Name returns the checker name.
func (c *SQLiteChecker) Name() string {
	return "sqlite"
}

// Check verifies the SQLite database is accessible.
func (c *SQLiteChecker) Check(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.db.PingContext(ctx)
}

// TelemetryChecker verifies the sample generator is keeping the
// latest-value view populated.
type TelemetryChecker struct {
	sensorCount func() int
}

// NewTelemetryChecker creates a telemetry health checker.
func NewTelemetryChecker(sensorCount func() int) *TelemetryChecker {
	return &TelemetryChecker{sensorCount: sensorCount}
}

// Name returns the checker name.
func (c *TelemetryChecker) Name() string {
	return "telemetry"
}

// Check verifies at least one sensor has reported a value.
func (c *TelemetryChecker) Check(ctx context.Context) error {
	if c.sensorCount == nil || c.sensorCount() == 0 {
		return fmt.Errorf("no sensor readings yet")
	}
	return nil
}
