package models

import (
	"time"

	"github.com/google/uuid"
)

type Meal struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Meal      string    `json:"meal"`
	Calories  int       `json:"calories"`
	Protein   string    `json:"protein"`
	Carbs     string    `json:"carbs"`
	Fat       string    `json:"fat"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type Hydration struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	GlassNum  int       `json:"glass_num"`
	CreatedAt time.Time `json:"created_at"`
}

type Exercise struct {
	ID             int64     `json:"id"`
	UserID         uuid.UUID `json:"-"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	Activity       string    `json:"activity"`
	Duration       string    `json:"duration"`
	CaloriesBurned int       `json:"calories_burned"`
	Notes          string    `json:"notes"`
	Source         string    `json:"source"` // "manual" | "apple_health"
	Distance       string    `json:"distance"`
	AvgHeartRate   *int      `json:"avg_heart_rate"`
	CreatedAt      time.Time `json:"created_at"`
}

type Weight struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Date      string    `json:"date"`
	WeightLbs float64   `json:"weight_lbs"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type Sleep struct {
	ID              int64     `json:"id"`
	UserID          uuid.UUID `json:"-"`
	Date            string    `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

type MealInput struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Meal     string `json:"meal"`
	Calories int    `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
	Notes    string `json:"notes"`
}

type HydrationInput struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	GlassNum int    `json:"glass_num"`
}

type ExerciseInput struct {
	Date           string `json:"date"`
	Time           string `json:"time"`
	Activity       string `json:"activity"`
	Duration       string `json:"duration"`
	CaloriesBurned int    `json:"calories_burned"`
	Notes          string `json:"notes"`
	Distance       string `json:"distance"`
	AvgHeartRate   *int   `json:"avg_heart_rate"`
}

type WeightInput struct {
	Date      string  `json:"date"`
	WeightLbs float64 `json:"weight_lbs"`
	Notes     string  `json:"notes"`
}

type SleepInput struct {
	Date            string `json:"date"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}
