package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vital-backend/internal/models"
)

type StreakRepo struct {
	pool *pgxpool.Pool
}

func NewStreakRepo(pool *pgxpool.Pool) *StreakRepo {
	return &StreakRepo{pool: pool}
}

func (r *StreakRepo) GetAll(ctx context.Context, userID uuid.UUID) ([]models.Streak, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT metric, current, best, last_active FROM streaks
		WHERE user_id = $1 ORDER BY metric`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	streaks := make([]models.Streak, 0)
	for rows.Next() {
		var s models.Streak
		if err := rows.Scan(&s.Metric, &s.Current, &s.Best, &s.LastActive); err != nil {
			return nil, err
		}
		streaks = append(streaks, s)
	}
	return streaks, rows.Err()
}

func (r *StreakRepo) Upsert(ctx context.Context, userID uuid.UUID, s *models.Streak) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO streaks (user_id, metric, current, best, last_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, metric) DO UPDATE SET current = $3, best = $4, last_active = $5`,
		userID, s.Metric, s.Current, s.Best, s.LastActive)
	return err
}

// ActiveDates returns the distinct dates with at least one row in the
// metric's source table, newest first.
func (r *StreakRepo) ActiveDates(ctx context.Context, userID uuid.UUID, metric string) ([]string, error) {
	var query string
	switch metric {
	case "meals":
		query = `SELECT DISTINCT date::text FROM meals WHERE user_id = $1 ORDER BY date::text DESC`
	case "hydration":
		query = `SELECT DISTINCT date::text FROM hydration WHERE user_id = $1 ORDER BY date::text DESC`
	case "exercise":
		query = `SELECT DISTINCT date::text FROM exercise WHERE user_id = $1 ORDER BY date::text DESC`
	case "weight":
		query = `SELECT DISTINCT date::text FROM weight WHERE user_id = $1 ORDER BY date::text DESC`
	default:
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make([]string, 0)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
