package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/moviegate/postbot/internal/models"
)

type ChannelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

func (r *ChannelRepository) ListByUser(ctx context.Context, userID int64) ([]models.Channel, error) {
	const query = `
SELECT id, user_id, name, url, created_at
FROM user_channels
WHERE user_id = ?
ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.UserID, &ch.Name, &ch.URL, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (r *ChannelRepository) Create(ctx context.Context, channel *models.Channel) error {
	const query = `
INSERT INTO user_channels (user_id, name, url)
VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, channel.UserID, channel.Name, channel.URL)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("channel last insert id: %w", err)
	}
	channel.ID = id
	return nil
}

// Delete removes a channel, scoped to its owner so one user cannot delete
// another's entries.
func (r *ChannelRepository) Delete(ctx context.Context, userID, channelID int64) error {
	const query = `DELETE FROM user_channels WHERE id = ? AND user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, channelID, userID); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}
