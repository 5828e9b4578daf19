package conversations

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// MemoryStore is a map-backed Store for tests, development, and as the
// fallback when the SQL store fails to initialize.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]models.Conversation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]models.Conversation)}
}

// Create inserts a conversation; duplicate creates return the existing
// row unchanged.
func (s *MemoryStore) Create(_ context.Context, threadID, sessionID, title string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rows[threadID]; ok {
		return &existing, nil
	}
	now := time.Now().UTC()
	row := models.Conversation{
		ID:        threadID,
		SessionID: sessionID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.rows[threadID] = row
	return &row, nil
}

// ListBySession returns the session's conversations, most recently
// updated first.
func (s *MemoryStore) ListBySession(_ context.Context, sessionID string) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Conversation
	for _, row := range s.rows {
		if row.SessionID == sessionID {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// Get returns the conversation, or nil when unknown.
func (s *MemoryStore) Get(_ context.Context, threadID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row, ok := s.rows[threadID]; ok {
		return &row, nil
	}
	return nil, nil
}

// Delete removes the conversation; unknown ids are a no-op.
func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, threadID)
	return nil
}

// UpdateTimestamp touches updated_at; unknown ids are a no-op.
func (s *MemoryStore) UpdateTimestamp(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[threadID]; ok {
		row.UpdatedAt = time.Now().UTC()
		s.rows[threadID] = row
	}
	return nil
}
