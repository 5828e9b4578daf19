package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// PostgresStore is the durable Store backed by the conversations table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection whose schema has been
// migrated.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a conversation; duplicate creates return the existing
// row unchanged.
func (s *PostgresStore) Create(ctx context.Context, threadID, sessionID, title string) (*models.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO conversations (thread_id, session_id, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (thread_id) DO NOTHING
		RETURNING thread_id, session_id, title, created_at, updated_at`,
		threadID, sessionID, title)

	conv, err := scanConversation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict path: the row already existed.
		return s.Get(ctx, threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// ListBySession returns the session's conversations, most recently
// updated first.
func (s *PostgresStore) ListBySession(ctx context.Context, sessionID string) ([]models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, session_id, title, created_at, updated_at
		FROM conversations
		WHERE session_id = $1
		ORDER BY updated_at DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var result []models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		result = append(result, *conv)
	}
	return result, rows.Err()
}

// Get returns the conversation, or nil when unknown.
func (s *PostgresStore) Get(ctx context.Context, threadID string) (*models.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT thread_id, session_id, title, created_at, updated_at
		FROM conversations
		WHERE thread_id = $1`, threadID)

	conv, err := scanConversation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// Delete removes the conversation; unknown ids are a no-op.
func (s *PostgresStore) Delete(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE thread_id = $1`, threadID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// UpdateTimestamp touches updated_at; unknown ids are a no-op.
func (s *PostgresStore) UpdateTimestamp(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = now() WHERE thread_id = $1`, threadID); err != nil {
		return fmt.Errorf("failed to update conversation timestamp: %w", err)
	}
	return nil
}

func scanConversation(scan func(...any) error) (*models.Conversation, error) {
	var conv models.Conversation
	if err := scan(&conv.ID, &conv.SessionID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return nil, err
	}
	return &conv, nil
}
