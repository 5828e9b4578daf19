package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// PostgresStore is the durable Store backed by the checkpoints table.
// Versions are assigned per thread inside a transaction so concurrent
// writers on the same thread serialize.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection whose schema has been
// migrated.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put stores a new snapshot for the thread.
func (s *PostgresStore) Put(ctx context.Context, threadID string, state *models.TurnState, metadata map[string]string) (Ref, error) {
	stateData, err := json.Marshal(state)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to serialize checkpoint: %w", err)
	}
	metaData, err := json.Marshal(metadata)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to serialize checkpoint metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to begin checkpoint transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO checkpoints (thread_id, version, state, metadata)
		VALUES ($1, (SELECT COALESCE(MAX(version), 0) + 1 FROM checkpoints WHERE thread_id = $1), $2, $3)
		RETURNING version`,
		threadID, stateData, metaData).Scan(&version)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Ref{}, fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return Ref{ThreadID: threadID, Version: version}, nil
}

// Get returns the latest state for the thread, or nil when unknown.
func (s *PostgresStore) Get(ctx context.Context, ref Ref) (*models.TurnState, error) {
	tuple, err := s.GetTuple(ctx, ref)
	if err != nil || tuple == nil {
		return nil, err
	}
	return tuple.State, nil
}

// GetTuple returns the latest checkpoint with metadata, or nil.
func (s *PostgresStore) GetTuple(ctx context.Context, ref Ref) (*Tuple, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT version, state, metadata, created_at
		FROM checkpoints
		WHERE thread_id = $1
		ORDER BY version DESC
		LIMIT 1`, ref.ThreadID)

	tuple, err := scanTuple(ref.ThreadID, row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return tuple, err
}

// List enumerates the thread's checkpoints newest-first.
func (s *PostgresStore) List(ctx context.Context, ref Ref) ([]Tuple, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, state, metadata, created_at
		FROM checkpoints
		WHERE thread_id = $1
		ORDER BY version DESC`, ref.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var result []Tuple
	for rows.Next() {
		tuple, err := scanTuple(ref.ThreadID, rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *tuple)
	}
	return result, rows.Err()
}

func scanTuple(threadID string, scan func(...any) error) (*Tuple, error) {
	var (
		version   int64
		stateData []byte
		metaData  []byte
		createdAt time.Time
	)
	if err := scan(&version, &stateData, &metaData, &createdAt); err != nil {
		return nil, err
	}
	var state models.TurnState
	if err := json.Unmarshal(stateData, &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint: %w", err)
	}
	meta := make(map[string]string)
	if len(metaData) > 0 {
		if err := json.Unmarshal(metaData, &meta); err != nil {
			return nil, fmt.Errorf("failed to deserialize checkpoint metadata: %w", err)
		}
	}
	return &Tuple{
		Ref:       Ref{ThreadID: threadID, Version: version},
		State:     &state,
		Metadata:  meta,
		CreatedAt: createdAt,
	}, nil
}
