package models

import (
	"time"

	"github.com/google/uuid"
)

type Preference struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MealTemplate struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type Feedback struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Username  string    `json:"username,omitempty"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Page      string    `json:"page"`
	CreatedAt time.Time `json:"created_at"`
}

type FeedbackInput struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Page     string `json:"page"`
}

type Streak struct {
	Metric     string `json:"metric"`
	Current    int    `json:"current"`
	Best       int    `json:"best"`
	LastActive string `json:"last_active"`
}
