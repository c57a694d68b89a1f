package memory

import (
	"context"
	"sync"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TokenMetadataStore is an in-memory implementation of
// storage.TokenMetadataStore. Like the PostgreSQL version it is the single
// writer of the social fields denormalized onto deploys and launches.
type TokenMetadataStore struct {
	mu       sync.RWMutex
	byTxHash map[string]*domain.TokenMetadata

	deploys  *TokenDeployStore
	launches *TokenLaunchStore
}

// NewTokenMetadataStore creates a new in-memory token metadata store that
// back-propagates social fields into the given deploy and launch stores.
func NewTokenMetadataStore(deploys *TokenDeployStore, launches *TokenLaunchStore) *TokenMetadataStore {
	return &TokenMetadataStore{
		byTxHash: make(map[string]*domain.TokenMetadata),
		deploys:  deploys,
		launches: launches,
	}
}

var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

// Upsert inserts or replaces metadata keyed by transaction hash and
// back-propagates the social fields onto the deploy and launch records for
// the same memecoin address.
func (s *TokenMetadataStore) Upsert(_ context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.TransactionHash == "" || m.MemecoinAddress == "" {
		return storage.ErrInvalidInput
	}

	now := nowMs()

	s.mu.Lock()
	existing, ok := s.byTxHash[m.TransactionHash]
	if !ok {
		metaCopy := *m
		metaCopy.CreatedAt = now
		metaCopy.UpdatedAt = now
		s.byTxHash[m.TransactionHash] = &metaCopy
	} else {
		existing.URL = m.URL
		existing.Twitter = m.Twitter
		existing.Telegram = m.Telegram
		existing.Github = m.Github
		existing.Website = m.Website
		existing.UpdatedAt = now
	}
	s.mu.Unlock()

	if s.deploys != nil {
		s.deploys.setSocials(m.MemecoinAddress, m, now)
	}
	if s.launches != nil {
		s.launches.setSocials(m.MemecoinAddress, m, now)
	}
	return nil
}

// GetByMemecoinAddress retrieves the most recent metadata for a token.
func (s *TokenMetadataStore) GetByMemecoinAddress(_ context.Context, address string) (*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.TokenMetadata
	for _, m := range s.byTxHash {
		if m.MemecoinAddress != address {
			continue
		}
		if latest == nil || m.UpdatedAt > latest.UpdatedAt {
			latest = m
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	metaCopy := *latest
	return &metaCopy, nil
}
