package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moviegate/postbot/internal/models"
)

type PremiumRepository struct {
	db *sql.DB
}

func NewPremiumRepository(db *sql.DB) *PremiumRepository {
	return &PremiumRepository{db: db}
}

func (r *PremiumRepository) Find(ctx context.Context, userID int64) (*models.PremiumRecord, error) {
	const query = `
SELECT user_id, premium_until, created_at, updated_at
FROM premium_users WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)
	var rec models.PremiumRecord
	if err := row.Scan(&rec.UserID, &rec.PremiumUntil, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan premium record: %w", err)
	}
	return &rec, nil
}

// Upsert replaces the stored window with the given expiry.
func (r *PremiumRepository) Upsert(ctx context.Context, rec *models.PremiumRecord) error {
	const query = `
INSERT INTO premium_users (user_id, premium_until)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE premium_until = VALUES(premium_until)`
	if _, err := r.db.ExecContext(ctx, query, rec.UserID, rec.PremiumUntil); err != nil {
		return fmt.Errorf("upsert premium record: %w", err)
	}
	return nil
}

func (r *PremiumRepository) Delete(ctx context.Context, userID int64) error {
	const query = `DELETE FROM premium_users WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete premium record: %w", err)
	}
	return nil
}

func (r *PremiumRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM premium_users`
	row := r.db.QueryRowContext(ctx, query)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count premium records: %w", err)
	}
	return count, nil
}
