package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vital-backend/internal/models"
)

type WeightRepo struct {
	pool *pgxpool.Pool
}

func NewWeightRepo(pool *pgxpool.Pool) *WeightRepo {
	return &WeightRepo{pool: pool}
}

// Upsert keeps one entry per date, replacing the value on conflict.
func (r *WeightRepo) Upsert(ctx context.Context, userID uuid.UUID, in *models.WeightInput) (*models.Weight, error) {
	w := &models.Weight{UserID: userID, Date: in.Date, WeightLbs: in.WeightLbs, Notes: in.Notes}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO weight (user_id, date, weight_lbs, notes)
		VALUES ($1, $2::date, $3, $4)
		ON CONFLICT (user_id, date) DO UPDATE SET weight_lbs = $3, notes = $4
		RETURNING id, created_at`,
		userID, in.Date, in.WeightLbs, in.Notes,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *WeightRepo) ListRange(ctx context.Context, userID uuid.UUID, from, to string) ([]models.Weight, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, date::text, weight_lbs, notes, created_at
		FROM weight WHERE user_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date DESC`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.Weight, 0)
	for rows.Next() {
		var w models.Weight
		if err := rows.Scan(&w.ID, &w.UserID, &w.Date, &w.WeightLbs, &w.Notes, &w.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, w)
	}
	return entries, rows.Err()
}

func (r *WeightRepo) DeleteByID(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM weight WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *WeightRepo) Delete(ctx context.Context, userID uuid.UUID, date string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM weight WHERE user_id = $1 AND date = $2::date`, userID, date)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
