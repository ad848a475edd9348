package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vital-backend/internal/models"
)

type HealthRepo struct {
	pool *pgxpool.Pool
}

func NewHealthRepo(pool *pgxpool.Pool) *HealthRepo {
	return &HealthRepo{pool: pool}
}

// UpsertDay merges the day's aggregates. Metrics absent from this sync keep
// their previously stored values.
func (r *HealthRepo) UpsertDay(ctx context.Context, userID uuid.UUID, day *models.AppleHealthDay) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO apple_health (user_id, date, steps, active_cal, basal_energy, flights_climbed,
			heart_rate, hrv, blood_oxygen, walking_hr, resting_hr, vo2_max, respiratory_rate,
			distance_walking, exercise_time, sleep_minutes)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (user_id, date) DO UPDATE SET
			steps = COALESCE(EXCLUDED.steps, apple_health.steps),
			active_cal = COALESCE(EXCLUDED.active_cal, apple_health.active_cal),
			basal_energy = COALESCE(EXCLUDED.basal_energy, apple_health.basal_energy),
			flights_climbed = COALESCE(EXCLUDED.flights_climbed, apple_health.flights_climbed),
			heart_rate = COALESCE(EXCLUDED.heart_rate, apple_health.heart_rate),
			hrv = COALESCE(EXCLUDED.hrv, apple_health.hrv),
			blood_oxygen = COALESCE(EXCLUDED.blood_oxygen, apple_health.blood_oxygen),
			walking_hr = COALESCE(EXCLUDED.walking_hr, apple_health.walking_hr),
			resting_hr = COALESCE(EXCLUDED.resting_hr, apple_health.resting_hr),
			vo2_max = COALESCE(EXCLUDED.vo2_max, apple_health.vo2_max),
			respiratory_rate = COALESCE(EXCLUDED.respiratory_rate, apple_health.respiratory_rate),
			distance_walking = COALESCE(EXCLUDED.distance_walking, apple_health.distance_walking),
			exercise_time = COALESCE(EXCLUDED.exercise_time, apple_health.exercise_time),
			sleep_minutes = COALESCE(EXCLUDED.sleep_minutes, apple_health.sleep_minutes)`,
		userID, day.Date, day.Steps, day.ActiveCal, day.BasalEnergy, day.FlightsClimbed,
		day.HeartRate, day.HRV, day.BloodOxygen, day.WalkingHR, day.RestingHR, day.VO2Max,
		day.RespiratoryRate, day.DistanceWalking, day.ExerciseTime, day.SleepMinutes,
	)
	return err
}

func (r *HealthRepo) GetByDate(ctx context.Context, userID uuid.UUID, date string) (*models.AppleHealthDay, error) {
	day := &models.AppleHealthDay{}
	err := r.pool.QueryRow(ctx, `
		SELECT date::text, steps, active_cal, basal_energy, flights_climbed, heart_rate, hrv,
			blood_oxygen, walking_hr, resting_hr, vo2_max, respiratory_rate, distance_walking,
			exercise_time, sleep_minutes
		FROM apple_health WHERE user_id = $1 AND date = $2::date`, userID, date,
	).Scan(&day.Date, &day.Steps, &day.ActiveCal, &day.BasalEnergy, &day.FlightsClimbed,
		&day.HeartRate, &day.HRV, &day.BloodOxygen, &day.WalkingHR, &day.RestingHR,
		&day.VO2Max, &day.RespiratoryRate, &day.DistanceWalking, &day.ExerciseTime, &day.SleepMinutes)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return day, nil
}

type DatedValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func (r *HealthRepo) VO2MaxSince(ctx context.Context, userID uuid.UUID, startDate string) ([]DatedValue, error) {
	return r.datedValues(ctx, `
		SELECT date::text, vo2_max FROM apple_health
		WHERE user_id = $1 AND vo2_max IS NOT NULL AND vo2_max > 0 AND date >= $2::date
		ORDER BY date DESC`, userID, startDate)
}

func (r *HealthRepo) SleepSince(ctx context.Context, userID uuid.UUID, startDate string) ([]DatedValue, error) {
	return r.datedValues(ctx, `
		SELECT date::text, sleep_minutes::float8 FROM apple_health
		WHERE user_id = $1 AND sleep_minutes IS NOT NULL AND sleep_minutes > 0 AND date >= $2::date
		ORDER BY date DESC`, userID, startDate)
}

func (r *HealthRepo) datedValues(ctx context.Context, query string, userID uuid.UUID, startDate string) ([]DatedValue, error) {
	rows, err := r.pool.Query(ctx, query, userID, startDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DatedValue, 0)
	for rows.Next() {
		var v DatedValue
		if err := rows.Scan(&v.Date, &v.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
