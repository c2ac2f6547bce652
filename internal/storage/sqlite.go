package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	path string
	db   *sql.DB

	readings        *sqliteReadingRepo
	alerts          *sqliteAlertRepo
	recommendations *sqliteRecommendationRepo
	systemLog       *sqliteSystemLogRepo
	connections     *sqliteConnectionRepo
}

// NewSQLiteStorage creates a new SQLite storage.
func NewSQLiteStorage(path string) *SQLiteStorage {
	return &SQLiteStorage{path: path}
}

// Open initializes the database connection.
func (s *SQLiteStorage) Open() error {
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	s.db = db

	s.readings = &sqliteReadingRepo{db: db}
	s.alerts = &sqliteAlertRepo{db: db}
	s.recommendations = &sqliteRecommendationRepo{db: db}
	s.systemLog = &sqliteSystemLogRepo{db: db}
	s.connections = &sqliteConnectionRepo{db: db}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate() error {
	return runMigrations(s.db)
}

// Readings returns the reading history repository.
func (s *SQLiteStorage) Readings() ReadingRepository {
	return s.readings
}

// Alerts returns the alert repository.
func (s *SQLiteStorage) Alerts() AlertRepository {
	return s.alerts
}

// Recommendations returns the recommendation repository.
func (s *SQLiteStorage) Recommendations() RecommendationRepository {
	return s.recommendations
}

// SystemLog returns the system log repository.
func (s *SQLiteStorage) SystemLog() SystemLogRepository {
	return s.systemLog
}

// Connections returns the connection status repository.
func (s *SQLiteStorage) Connections() ConnectionRepository {
	return s.connections
}

// Helper functions shared by the sqlite repositories.

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
