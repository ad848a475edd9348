package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vital-backend/internal/models"
)

type HydrationRepo struct {
	pool *pgxpool.Pool
}

func NewHydrationRepo(pool *pgxpool.Pool) *HydrationRepo {
	return &HydrationRepo{pool: pool}
}

func (r *HydrationRepo) Create(ctx context.Context, userID uuid.UUID, in *models.HydrationInput) (*models.Hydration, error) {
	h := &models.Hydration{UserID: userID, Date: in.Date, Time: in.Time, GlassNum: in.GlassNum}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO hydration (user_id, date, time, glass_num)
		VALUES ($1, $2::date, $3, $4)
		RETURNING id, created_at`,
		userID, in.Date, in.Time, in.GlassNum,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *HydrationRepo) ListRange(ctx context.Context, userID uuid.UUID, from, to string) ([]models.Hydration, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, date::text, time, glass_num, created_at
		FROM hydration WHERE user_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date, id`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.Hydration, 0)
	for rows.Next() {
		var h models.Hydration
		if err := rows.Scan(&h.ID, &h.UserID, &h.Date, &h.Time, &h.GlassNum, &h.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

func (r *HydrationRepo) ListByDate(ctx context.Context, userID uuid.UUID, date string) ([]models.Hydration, error) {
	return r.ListRange(ctx, userID, date, date)
}

func (r *HydrationRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM hydration WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteLatest removes the most recent glass for the date.
func (r *HydrationRepo) DeleteLatest(ctx context.Context, userID uuid.UUID, date string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM hydration WHERE id = (
			SELECT id FROM hydration
			WHERE user_id = $1 AND date = $2::date
			ORDER BY id DESC LIMIT 1
		)`, userID, date)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
