package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatRequest struct {
	Message    string `json:"message"`
	Image      string `json:"image"` // base64-encoded, optional
	SessionKey string `json:"sessionKey"`
}

type ChatHistoryEntry struct {
	ID         int64     `json:"id"`
	UserID     uuid.UUID `json:"-"`
	Role       string    `json:"role"` // "user" | "assistant"
	Content    string    `json:"content"`
	SessionKey *string   `json:"session_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
