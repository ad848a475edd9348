package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vital-backend/internal/models"
)

type SleepRepo struct {
	pool *pgxpool.Pool
}

func NewSleepRepo(pool *pgxpool.Pool) *SleepRepo {
	return &SleepRepo{pool: pool}
}

func (r *SleepRepo) Upsert(ctx context.Context, userID uuid.UUID, in *models.SleepInput, source string) (*models.Sleep, error) {
	s := &models.Sleep{
		UserID: userID, Date: in.Date, DurationMinutes: in.DurationMinutes,
		Notes: in.Notes, Source: source,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sleep (user_id, date, duration_minutes, notes, source)
		VALUES ($1, $2::date, $3, $4, $5)
		ON CONFLICT (user_id, date) DO UPDATE SET duration_minutes = $3, notes = $4, source = $5
		RETURNING id, created_at`,
		userID, in.Date, in.DurationMinutes, in.Notes, source,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SleepRepo) ListRange(ctx context.Context, userID uuid.UUID, from, to string) ([]models.Sleep, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, date::text, duration_minutes, notes, source, created_at
		FROM sleep WHERE user_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date DESC`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.Sleep, 0)
	for rows.Next() {
		var s models.Sleep
		if err := rows.Scan(&s.ID, &s.UserID, &s.Date, &s.DurationMinutes, &s.Notes, &s.Source, &s.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, s)
	}
	return entries, rows.Err()
}

func (r *SleepRepo) GetByDate(ctx context.Context, userID uuid.UUID, date string) (*models.Sleep, error) {
	entries, err := r.ListRange(ctx, userID, date, date)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (r *SleepRepo) DeleteByID(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sleep WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SleepRepo) Delete(ctx context.Context, userID uuid.UUID, date string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM sleep WHERE user_id = $1 AND date = $2::date`, userID, date)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
