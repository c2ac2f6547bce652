package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

type sqliteSystemLogRepo struct {
	db *sql.DB
}

func (r *sqliteSystemLogRepo) Create(ctx context.Context, entry *models.SystemLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO system_log (id, level, message, source, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Level, entry.Message, entry.Source, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert system log entry: %w", err)
	}
	return nil
}

func (r *sqliteSystemLogRepo) ListRecent(ctx context.Context, limit int) ([]*models.SystemLogEntry, error) {
	query := `
		SELECT id, level, message, source, created_at
		FROM system_log ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query system log: %w", err)
	}
	defer rows.Close()

	var entries []*models.SystemLogEntry
	for rows.Next() {
		entry := &models.SystemLogEntry{}
		err := rows.Scan(&entry.ID, &entry.Level, &entry.Message, &entry.Source, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan system log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *sqliteSystemLogRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM system_log WHERE created_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("delete system log entries: %w", err)
	}
	return result.RowsAffected()
}
