package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

type sqliteConnectionRepo struct {
	db *sql.DB
}

func (r *sqliteConnectionRepo) Upsert(ctx context.Context, conn *models.ServerConnection) error {
	if conn.LastHeartbeat.IsZero() {
		conn.LastHeartbeat = time.Now()
	}

	query := `
		INSERT INTO server_connections (source, status, last_heartbeat)
		VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			status = excluded.status,
			last_heartbeat = excluded.last_heartbeat
	`
	_, err := r.db.ExecContext(ctx, query, conn.Source, conn.Status, conn.LastHeartbeat)
	if err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}
	return nil
}

func (r *sqliteConnectionRepo) List(ctx context.Context) ([]*models.ServerConnection, error) {
	query := `
		SELECT source, status, last_heartbeat
		FROM server_connections ORDER BY source
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	var conns []*models.ServerConnection
	for rows.Next() {
		conn := &models.ServerConnection{}
		err := rows.Scan(&conn.Source, &conn.Status, &conn.LastHeartbeat)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}
