package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

type sqliteRecommendationRepo struct {
	db *sql.DB
}

func (r *sqliteRecommendationRepo) Create(ctx context.Context, rec *models.Recommendation) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.Confidence = models.ClampConfidence(rec.Confidence)

	query := `
		INSERT INTO recommendations (id, title, description, priority, confidence, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.Description, rec.Priority, rec.Confidence,
		rec.Category, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

func (r *sqliteRecommendationRepo) ListRecent(ctx context.Context, limit int) ([]*models.Recommendation, error) {
	query := `
		SELECT id, title, description, priority, confidence, category, created_at
		FROM recommendations ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		rec := &models.Recommendation{}
		err := rows.Scan(
			&rec.ID, &rec.Title, &rec.Description, &rec.Priority,
			&rec.Confidence, &rec.Category, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *sqliteRecommendationRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM recommendations WHERE created_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("delete recommendations: %w", err)
	}
	return result.RowsAffected()
}
