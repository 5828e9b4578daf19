package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// MemoryStore is a map-backed Store for tests, development, and as the
// fallback when the SQL store fails to initialize. State is held as
// serialized bytes so callers never share mutable snapshots.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string][]memoryEntry
}

type memoryEntry struct {
	version   int64
	state     []byte
	metadata  map[string]string
	createdAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string][]memoryEntry)}
}

// Put stores a new snapshot for the thread.
func (s *MemoryStore) Put(_ context.Context, threadID string, state *models.TurnState, metadata map[string]string) (Ref, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to serialize checkpoint: %w", err)
	}
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	version := int64(len(s.threads[threadID]) + 1)
	s.threads[threadID] = append(s.threads[threadID], memoryEntry{
		version:   version,
		state:     data,
		metadata:  meta,
		createdAt: time.Now().UTC(),
	})
	return Ref{ThreadID: threadID, Version: version}, nil
}

// Get returns the latest state for the thread, or nil when unknown.
func (s *MemoryStore) Get(ctx context.Context, ref Ref) (*models.TurnState, error) {
	tuple, err := s.GetTuple(ctx, ref)
	if err != nil || tuple == nil {
		return nil, err
	}
	return tuple.State, nil
}

// GetTuple returns the latest checkpoint with metadata, or nil.
func (s *MemoryStore) GetTuple(_ context.Context, ref Ref) (*Tuple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.threads[ref.ThreadID]
	if len(entries) == 0 {
		return nil, nil
	}
	return decodeEntry(ref.ThreadID, entries[len(entries)-1])
}

// List enumerates the thread's checkpoints newest-first.
func (s *MemoryStore) List(_ context.Context, ref Ref) ([]Tuple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.threads[ref.ThreadID]
	result := make([]Tuple, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		tuple, err := decodeEntry(ref.ThreadID, entries[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *tuple)
	}
	return result, nil
}

func decodeEntry(threadID string, e memoryEntry) (*Tuple, error) {
	var state models.TurnState
	if err := json.Unmarshal(e.state, &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint: %w", err)
	}
	meta := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		meta[k] = v
	}
	return &Tuple{
		Ref:       Ref{ThreadID: threadID, Version: e.version},
		State:     &state,
		Metadata:  meta,
		CreatedAt: e.createdAt,
	}, nil
}
