// Package checkpoint persists turn state snapshots keyed by thread, so
// an interrupted turn can resume and later turns build on earlier ones.
package checkpoint

import (
	"context"
	"time"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// Ref addresses checkpoints for one thread. A zero Version means
// "latest".
type Ref struct {
	ThreadID string
	Version  int64
}

// Tuple is a checkpoint together with its addressing and metadata.
type Tuple struct {
	Ref       Ref
	State     *models.TurnState
	Metadata  map[string]string
	CreatedAt time.Time
}

// Store is the checkpoint capability. Data written under one thread id
// is invisible from every other thread id.
type Store interface {
	// Put stores a new snapshot for the thread and returns its ref.
	Put(ctx context.Context, threadID string, state *models.TurnState, metadata map[string]string) (Ref, error)

	// Get returns the latest state for the ref's thread, or nil when
	// the thread has no checkpoints.
	Get(ctx context.Context, ref Ref) (*models.TurnState, error)

	// GetTuple returns the latest checkpoint with metadata, or nil.
	GetTuple(ctx context.Context, ref Ref) (*Tuple, error)

	// List enumerates the thread's checkpoints newest-first.
	List(ctx context.Context, ref Ref) ([]Tuple, error)
}
