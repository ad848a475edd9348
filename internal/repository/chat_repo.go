package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vital-backend/internal/models"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) SaveMessage(ctx context.Context, userID uuid.UUID, role, content string, sessionKey *string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_history (user_id, role, content, session_key) VALUES ($1, $2, $3, $4)`,
		userID, role, content, sessionKey,
	)
	return err
}

// History returns the most recent messages in chronological order.
func (r *ChatRepo) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, role, content, session_key, created_at
		FROM chat_history WHERE user_id = $1
		ORDER BY id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.ChatHistoryEntry, 0)
	for rows.Next() {
		var e models.ChatHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Role, &e.Content, &e.SessionKey, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest rows came first; flip to chronological.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (r *ChatRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM chat_history WHERE user_id = $1`, userID)
	return err
}
