package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moviegate/postbot/internal/models"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Find(ctx context.Context, userID int64) (*models.Settings, error) {
	const query = `
SELECT user_id, COALESCE(ad_redirect_url, ''), click_threshold
FROM user_settings WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)
	var s models.Settings
	if err := row.Scan(&s.UserID, &s.AdRedirectURL, &s.ClickThreshold); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepository) UpsertAdRedirectURL(ctx context.Context, userID int64, url string) error {
	const query = `
INSERT INTO user_settings (user_id, ad_redirect_url)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE ad_redirect_url = VALUES(ad_redirect_url)`
	if _, err := r.db.ExecContext(ctx, query, userID, url); err != nil {
		return fmt.Errorf("upsert ad redirect url: %w", err)
	}
	return nil
}

func (r *SettingsRepository) UpsertClickThreshold(ctx context.Context, userID int64, threshold int) error {
	const query = `
INSERT INTO user_settings (user_id, click_threshold)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE click_threshold = VALUES(click_threshold)`
	if _, err := r.db.ExecContext(ctx, query, userID, threshold); err != nil {
		return fmt.Errorf("upsert click threshold: %w", err)
	}
	return nil
}
