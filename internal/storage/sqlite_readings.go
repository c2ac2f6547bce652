package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

type sqliteReadingRepo struct {
	db *sql.DB
}

func (r *sqliteReadingRepo) Create(ctx context.Context, reading *models.Reading) error {
	if reading.ID == "" {
		reading.ID = uuid.New().String()
	}
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO readings (id, sensor_id, kind, value, unit, status, threshold, max_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		reading.ID, reading.SensorID, reading.Kind, reading.Value, reading.Unit,
		reading.Status, nullFloat(reading.Threshold), nullFloat(reading.MaxValue),
		reading.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *sqliteReadingRepo) ListBySensor(ctx context.Context, sensorID string, limit int) ([]*models.Reading, error) {
	query := `
		SELECT id, sensor_id, kind, value, unit, status, threshold, max_value, created_at
		FROM readings WHERE sensor_id = ?
		ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, sensorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []*models.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

func (r *sqliteReadingRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM readings WHERE created_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("delete readings: %w", err)
	}
	return result.RowsAffected()
}

func scanReading(rows *sql.Rows) (*models.Reading, error) {
	reading := &models.Reading{}
	var threshold, maxValue sql.NullFloat64

	err := rows.Scan(
		&reading.ID, &reading.SensorID, &reading.Kind, &reading.Value, &reading.Unit,
		&reading.Status, &threshold, &maxValue, &reading.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan reading: %w", err)
	}

	reading.Threshold = floatPtr(threshold)
	reading.MaxValue = floatPtr(maxValue)
	return reading, nil
}
