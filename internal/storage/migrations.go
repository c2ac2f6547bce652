package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Reading history (append-only)
			CREATE TABLE IF NOT EXISTS readings (
				id TEXT PRIMARY KEY,
				sensor_id TEXT NOT NULL,
				kind TEXT NOT NULL,
				value REAL NOT NULL,
				unit TEXT NOT NULL,
				status TEXT NOT NULL,
				threshold REAL,
				max_value REAL,
				created_at DATETIME NOT NULL
			);

			-- Alerts
			CREATE TABLE IF NOT EXISTS alerts (
				id TEXT PRIMARY KEY,
				sensor_id TEXT NOT NULL,
				severity TEXT NOT NULL,
				message TEXT NOT NULL,
				active INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL
			);

			-- Recommendations (append-only)
			CREATE TABLE IF NOT EXISTS recommendations (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL,
				priority TEXT NOT NULL,
				confidence INTEGER NOT NULL,
				category TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);

			-- System log (append-only)
			CREATE TABLE IF NOT EXISTS system_log (
				id TEXT PRIMARY KEY,
				level TEXT NOT NULL,
				message TEXT NOT NULL,
				source TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);

			-- Data source connection status (one row per source)
			CREATE TABLE IF NOT EXISTS server_connections (
				source TEXT PRIMARY KEY,
				status TEXT NOT NULL,
				last_heartbeat DATETIME NOT NULL
			);

			-- Indexes
			CREATE INDEX IF NOT EXISTS idx_readings_sensor ON readings(sensor_id, created_at);
			CREATE INDEX IF NOT EXISTS idx_readings_created ON readings(created_at);
			CREATE INDEX IF NOT EXISTS idx_alerts_sensor_active ON alerts(sensor_id, active);
			CREATE INDEX IF NOT EXISTS idx_recommendations_created ON recommendations(created_at);
			CREATE INDEX IF NOT EXISTS idx_system_log_created ON system_log(created_at);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}

		_, err = tx.Exec(m.Up)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d (%s): %w", m.Version, m.Name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
