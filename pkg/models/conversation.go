package models

import "time"

// Conversation is the per-thread metadata record. It lives in its own
// store, independent of the checkpoint namespace: deleting a
// conversation does not cascade into checkpoints.
type Conversation struct {
	ID        string    `json:"id"` // == thread_id
	SessionID string    `json:"session_id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
