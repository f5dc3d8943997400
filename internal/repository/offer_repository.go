package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moviegate/postbot/internal/models"
)

type OfferRepository struct {
	db *sql.DB
}

func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

func (r *OfferRepository) List(ctx context.Context) ([]models.Offer, error) {
	const query = `
SELECT id, title, price, duration_days, created_at, updated_at
FROM offers
ORDER BY duration_days ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var offer models.Offer
		if err := rows.Scan(&offer.ID, &offer.Title, &offer.Price, &offer.DurationDays, &offer.CreatedAt, &offer.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func (r *OfferRepository) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	const query = `
SELECT id, title, price, duration_days, created_at, updated_at
FROM offers
WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	var offer models.Offer
	if err := row.Scan(&offer.ID, &offer.Title, &offer.Price, &offer.DurationDays, &offer.CreatedAt, &offer.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get offer: %w", err)
	}
	return &offer, nil
}

func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	const query = `
INSERT INTO offers (title, price, duration_days)
VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, offer.Title, offer.Price, offer.DurationDays)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("offer last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *OfferRepository) Update(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	const query = `
UPDATE offers
SET title = ?, price = ?, duration_days = ?, updated_at = NOW()
WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, offer.Title, offer.Price, offer.DurationDays, offer.ID); err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}
	return r.GetByID(ctx, offer.ID)
}

func (r *OfferRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM offers WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	return nil
}
