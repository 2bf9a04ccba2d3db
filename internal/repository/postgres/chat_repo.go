// internal/repository/postgres/chat_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"helloaca-service/internal/domain/chat"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository struct {
	db *pgxpool.Pool
}

func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// FindOrCreateSession returns the active chat session for a contract,
// creating it on first access.
func (r *ChatRepository) FindOrCreateSession(ctx context.Context, userID, contractID uuid.UUID, title string) (*chat.Session, error) {
	find := `
		SELECT id, contract_id, user_id, title, status, created_at, updated_at
		FROM contract_chats
		WHERE contract_id = $1 AND user_id = $2 AND status = 'active'
	`

	var s chat.Session
	err := r.db.QueryRow(ctx, find, contractID, userID).Scan(
		&s.ID, &s.ContractID, &s.UserID, &s.Title, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to find chat session: %w", err)
	}

	create := `
		INSERT INTO contract_chats (contract_id, user_id, title, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING id, contract_id, user_id, title, status, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, create, contractID, userID, title).Scan(
		&s.ID, &s.ContractID, &s.UserID, &s.Title, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}

	return &s, nil
}

// ListMessages returns a session's messages oldest first.
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]chat.Message, error) {
	query := `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// InsertMessage appends a message to a session.
func (r *ChatRepository) InsertMessage(ctx context.Context, sessionID uuid.UUID, role chat.Role, content string) (*chat.Message, error) {
	query := `
		INSERT INTO chat_messages (session_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, session_id, role, content, created_at
	`

	var m chat.Message
	err := r.db.QueryRow(ctx, query, sessionID, role, content).Scan(
		&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat message: %w", err)
	}

	return &m, nil
}
