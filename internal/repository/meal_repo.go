package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vital-backend/internal/models"
)

type MealRepo struct {
	pool *pgxpool.Pool
}

func NewMealRepo(pool *pgxpool.Pool) *MealRepo {
	return &MealRepo{pool: pool}
}

func (r *MealRepo) Create(ctx context.Context, userID uuid.UUID, in *models.MealInput) (*models.Meal, error) {
	m := &models.Meal{
		UserID: userID, Date: in.Date, Time: in.Time, Meal: in.Meal,
		Calories: in.Calories, Protein: in.Protein, Carbs: in.Carbs, Fat: in.Fat, Notes: in.Notes,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO meals (user_id, date, time, meal, calories, protein, carbs, fat, notes)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		userID, in.Date, in.Time, in.Meal, in.Calories, in.Protein, in.Carbs, in.Fat, in.Notes,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MealRepo) ListRange(ctx context.Context, userID uuid.UUID, from, to string) ([]models.Meal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, date::text, time, meal, calories, protein, carbs, fat, notes, created_at
		FROM meals WHERE user_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date, id`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := make([]models.Meal, 0)
	for rows.Next() {
		var m models.Meal
		if err := rows.Scan(&m.ID, &m.UserID, &m.Date, &m.Time, &m.Meal,
			&m.Calories, &m.Protein, &m.Carbs, &m.Fat, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

func (r *MealRepo) ListByDate(ctx context.Context, userID uuid.UUID, date string) ([]models.Meal, error) {
	return r.ListRange(ctx, userID, date, date)
}

func (r *MealRepo) Update(ctx context.Context, userID uuid.UUID, id int64, in *models.MealInput) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE meals SET date = $1::date, time = $2, meal = $3, calories = $4,
			protein = $5, carbs = $6, fat = $7, notes = $8
		WHERE id = $9 AND user_id = $10`,
		in.Date, in.Time, in.Meal, in.Calories, in.Protein, in.Carbs, in.Fat, in.Notes, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MealRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM meals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
