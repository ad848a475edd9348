package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vital-backend/internal/models"
)

type ExerciseRepo struct {
	pool *pgxpool.Pool
}

func NewExerciseRepo(pool *pgxpool.Pool) *ExerciseRepo {
	return &ExerciseRepo{pool: pool}
}

func (r *ExerciseRepo) Create(ctx context.Context, userID uuid.UUID, in *models.ExerciseInput, source string) (*models.Exercise, error) {
	e := &models.Exercise{
		UserID: userID, Date: in.Date, Time: in.Time, Activity: in.Activity,
		Duration: in.Duration, CaloriesBurned: in.CaloriesBurned, Notes: in.Notes,
		Source: source, Distance: in.Distance, AvgHeartRate: in.AvgHeartRate,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO exercise (user_id, date, time, activity, duration, calories_burned, notes, source, distance, avg_heart_rate)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		userID, in.Date, in.Time, in.Activity, in.Duration, in.CaloriesBurned,
		in.Notes, source, in.Distance, in.AvgHeartRate,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *ExerciseRepo) ListRange(ctx context.Context, userID uuid.UUID, from, to string) ([]models.Exercise, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, date::text, time, activity, duration, calories_burned, notes, source, distance, avg_heart_rate, created_at
		FROM exercise WHERE user_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date, id`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.Exercise, 0)
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Time, &e.Activity, &e.Duration,
			&e.CaloriesBurned, &e.Notes, &e.Source, &e.Distance, &e.AvgHeartRate, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *ExerciseRepo) ListByDate(ctx context.Context, userID uuid.UUID, date string) ([]models.Exercise, error) {
	return r.ListRange(ctx, userID, date, date)
}

func (r *ExerciseRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exercise WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
