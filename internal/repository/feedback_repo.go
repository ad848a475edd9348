package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vital-backend/internal/models"
)

type FeedbackRepo struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepo(pool *pgxpool.Pool) *FeedbackRepo {
	return &FeedbackRepo{pool: pool}
}

func (r *FeedbackRepo) Create(ctx context.Context, userID uuid.UUID, in *models.FeedbackInput) (*models.Feedback, error) {
	f := &models.Feedback{UserID: userID, Category: in.Category, Message: in.Message, Page: in.Page}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO feedback (user_id, category, message, page)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		userID, in.Category, in.Message, in.Page,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *FeedbackRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Feedback, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, category, message, page, created_at
		FROM feedback WHERE user_id = $1
		ORDER BY id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.Feedback, 0)
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Category, &f.Message, &f.Page, &f.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// ListAll is the admin feed across users, newest first.
func (r *FeedbackRepo) ListAll(ctx context.Context, limit int) ([]models.Feedback, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT f.id, f.user_id, u.username, f.category, f.message, f.page, f.created_at
		FROM feedback f JOIN users u ON u.id = f.user_id
		ORDER BY f.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.Feedback, 0)
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Username, &f.Category, &f.Message, &f.Page, &f.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}
