package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moviegate/postbot/internal/models"
)

type CodeRepository struct {
	db *sql.DB
}

func NewCodeRepository(db *sql.DB) *CodeRepository {
	return &CodeRepository{db: db}
}

func (r *CodeRepository) Create(ctx context.Context, code string, durationDays int) error {
	const query = `
INSERT INTO redeem_codes (code, duration_days)
VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, code, durationDays); err != nil {
		return fmt.Errorf("insert redeem code: %w", err)
	}
	return nil
}

// Claim consumes a code in a single transaction: the row is locked, read and
// deleted before commit, so two callers racing on the same token cannot both
// succeed.
func (r *CodeRepository) Claim(ctx context.Context, code string) (*models.RedeemCode, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT code, duration_days, created_at FROM redeem_codes WHERE code = ? FOR UPDATE`, code)
	var claimed models.RedeemCode
	if err := row.Scan(&claimed.Code, &claimed.DurationDays, &claimed.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock redeem code: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM redeem_codes WHERE code = ?`, code); err != nil {
		return nil, fmt.Errorf("consume redeem code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}
	return &claimed, nil
}

func (r *CodeRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM redeem_codes`
	row := r.db.QueryRowContext(ctx, query)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count redeem codes: %w", err)
	}
	return count, nil
}
