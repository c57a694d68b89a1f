package memory

import (
	"context"
	"sync"

	"launchpad-indexer/internal/storage"
)

// ProcessedEventStore is an in-memory implementation of
// storage.ProcessedEventStore.
type ProcessedEventStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewProcessedEventStore creates a new in-memory processed event store.
func NewProcessedEventStore() *ProcessedEventStore {
	return &ProcessedEventStore{
		seen: make(map[string]struct{}),
	}
}

var _ storage.ProcessedEventStore = (*ProcessedEventStore)(nil)

// Mark records an event id as processed. Returns false when the id was
// already present.
func (s *ProcessedEventStore) Mark(_ context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[eventID]; exists {
		return false, nil
	}
	s.seen[eventID] = struct{}{}
	return true, nil
}
