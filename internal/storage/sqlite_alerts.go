package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

type sqliteAlertRepo struct {
	db *sql.DB
}

func (r *sqliteAlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO alerts (id, sensor_id, severity, message, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		alert.ID, alert.SensorID, alert.Severity, alert.Message,
		boolToInt(alert.Active), alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *sqliteAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `
		SELECT id, sensor_id, severity, message, active, created_at
		FROM alerts WHERE id = ?
	`
	alert := &models.Alert{}
	var active int

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&alert.ID, &alert.SensorID, &alert.Severity, &alert.Message,
		&active, &alert.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}

	alert.Active = active != 0
	return alert, nil
}

func (r *sqliteAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	query := `
		SELECT id, sensor_id, severity, message, active, created_at
		FROM alerts WHERE active = 1 ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		alert := &models.Alert{}
		var active int
		err := rows.Scan(
			&alert.ID, &alert.SensorID, &alert.Severity, &alert.Message,
			&active, &alert.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alert.Active = active != 0
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func (r *sqliteAlertRepo) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE alerts SET active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deactivate alert: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return nil
}
