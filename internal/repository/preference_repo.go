package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vital-backend/internal/models"
)

type PreferenceRepo struct {
	pool *pgxpool.Pool
}

func NewPreferenceRepo(pool *pgxpool.Pool) *PreferenceRepo {
	return &PreferenceRepo{pool: pool}
}

func (r *PreferenceRepo) GetAll(ctx context.Context, userID uuid.UUID) ([]models.Preference, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT key, value, updated_at FROM user_preferences
		WHERE user_id = $1 ORDER BY key`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := make([]models.Preference, 0)
	for rows.Next() {
		var p models.Preference
		if err := rows.Scan(&p.Key, &p.Value, &p.UpdatedAt); err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

func (r *PreferenceRepo) Get(ctx context.Context, userID uuid.UUID, key string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM user_preferences WHERE user_id = $1 AND key = $2`, userID, key,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *PreferenceRepo) Set(ctx context.Context, userID uuid.UUID, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_preferences (user_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO UPDATE SET value = $3, updated_at = NOW()`,
		userID, key, value)
	return err
}

func (r *PreferenceRepo) Delete(ctx context.Context, userID uuid.UUID, key string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_preferences WHERE user_id = $1 AND key = $2`, userID, key)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetGoals returns goal-shaped preferences (the "*_goal" and "primary_*" keys).
func (r *PreferenceRepo) GetGoals(ctx context.Context, userID uuid.UUID) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT key, value FROM user_preferences
		WHERE user_id = $1 AND (key LIKE '%_goal' OR key LIKE 'primary_%')
		ORDER BY key`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		goals[k] = v
	}
	return goals, rows.Err()
}
