package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moviegate/postbot/internal/models"
)

// PostRepository is the publishing store. It is append-only: published posts
// are never updated or deleted.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	const query = `
INSERT INTO posts (id, user_id, html)
VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, post.ID, post.UserID, post.HTML); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	const query = `
SELECT id, user_id, html, created_at
FROM posts WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	var p models.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.HTML, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &p, nil
}
