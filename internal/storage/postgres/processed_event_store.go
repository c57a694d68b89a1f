package postgres

import (
	"context"
	"fmt"

	"launchpad-indexer/internal/storage"
)

// ProcessedEventStore implements storage.ProcessedEventStore using PostgreSQL.
// One row per applied event id; redeliveries hit the primary key and are
// reported without error.
type ProcessedEventStore struct {
	pool *Pool
}

// NewProcessedEventStore creates a new ProcessedEventStore.
func NewProcessedEventStore(pool *Pool) *ProcessedEventStore {
	return &ProcessedEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProcessedEventStore = (*ProcessedEventStore)(nil)

// Mark records an event id as processed. Returns false when the id was
// already present.
func (s *ProcessedEventStore) Mark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO processed_events (event_id, processed_at)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query, eventID, nowMs())
	if err != nil {
		return false, fmt.Errorf("mark processed event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
