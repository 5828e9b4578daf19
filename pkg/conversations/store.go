// Package conversations manages the conversation records shown in a
// session's history list, independently of the checkpoint store.
package conversations

import (
	"context"
	"strings"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// Store is the conversation CRUD capability.
type Store interface {
	// Create inserts a conversation. Creating an existing thread id is
	// a no-op that returns the existing row unchanged.
	Create(ctx context.Context, threadID, sessionID, title string) (*models.Conversation, error)

	// ListBySession returns the session's conversations ordered by
	// updated_at descending.
	ListBySession(ctx context.Context, sessionID string) ([]models.Conversation, error)

	// Get returns the conversation, or nil when unknown.
	Get(ctx context.Context, threadID string) (*models.Conversation, error)

	// Delete removes the conversation. Deleting an unknown thread id
	// is a no-op.
	Delete(ctx context.Context, threadID string) error

	// UpdateTimestamp touches updated_at after a completed turn.
	UpdateTimestamp(ctx context.Context, threadID string) error
}

const titleMaxLen = 50

// DeriveTitle produces a conversation title from the first user
// message: the first sentence, truncated on a word boundary when it
// exceeds maxLen. Empty or whitespace-only input is returned unchanged.
func DeriveTitle(message string, maxLen int) string {
	if strings.TrimSpace(message) == "" {
		return message
	}
	if maxLen <= 0 {
		maxLen = titleMaxLen
	}

	title := strings.TrimSpace(message)
	if idx := strings.IndexAny(title, ".!?"); idx >= 0 {
		title = strings.TrimSpace(title[:idx+1])
	}
	if len(title) <= maxLen {
		return title
	}

	cut := title[:maxLen-3]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}
