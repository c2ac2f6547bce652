// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

// ErrNotFound is returned when an operation targets a row that does
// not exist. Callers map it to a typed not-found API response.
var ErrNotFound = errors.New("not found")

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error

	// Repository accessors
	Readings() ReadingRepository
	Alerts() AlertRepository
	Recommendations() RecommendationRepository
	SystemLog() SystemLogRepository
	Connections() ConnectionRepository
}

// ReadingRepository defines operations for the append-only reading history.
// Create assigns the record identifier and a default creation timestamp.
type ReadingRepository interface {
	Create(ctx context.Context, reading *models.Reading) error
	ListBySensor(ctx context.Context, sensorID string, limit int) ([]*models.Reading, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AlertRepository defines operations for alert records.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	// GetByID returns (nil, nil) when no alert with the id exists.
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	ListActive(ctx context.Context) ([]*models.Alert, error)
	// Deactivate clears the active flag. Returns ErrNotFound if the
	// id does not name an existing alert.
	Deactivate(ctx context.Context, id string) error
}

// RecommendationRepository defines operations for the recommendation log.
type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.Recommendation) error
	ListRecent(ctx context.Context, limit int) ([]*models.Recommendation, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// SystemLogRepository defines operations for system log entries.
type SystemLogRepository interface {
	Create(ctx context.Context, entry *models.SystemLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]*models.SystemLogEntry, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ConnectionRepository defines operations for data source connection rows.
// Exactly one row exists per source label.
type ConnectionRepository interface {
	Upsert(ctx context.Context, conn *models.ServerConnection) error
	List(ctx context.Context) ([]*models.ServerConnection, error)
}
