package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TokenDeployStore is an in-memory implementation of storage.TokenDeployStore.
type TokenDeployStore struct {
	mu       sync.RWMutex
	byTxHash map[string]*domain.TokenDeploy
}

// NewTokenDeployStore creates a new in-memory token deploy store.
func NewTokenDeployStore() *TokenDeployStore {
	return &TokenDeployStore{
		byTxHash: make(map[string]*domain.TokenDeploy),
	}
}

var _ storage.TokenDeployStore = (*TokenDeployStore)(nil)

// Upsert inserts or merges a deploy keyed by transaction hash. Empty optional
// fields on the incoming record leave stored values untouched. Social fields
// are never written here; they belong to the metadata store.
func (s *TokenDeployStore) Upsert(_ context.Context, d *domain.TokenDeploy) error {
	if d == nil || d.TransactionHash == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMs()
	existing, ok := s.byTxHash[d.TransactionHash]
	if !ok {
		deployCopy := *d
		deployCopy.CreatedAt = now
		deployCopy.UpdatedAt = now
		s.byTxHash[d.TransactionHash] = &deployCopy
		return nil
	}

	if d.Network != "" {
		existing.Network = d.Network
	}
	if d.BlockTimestamp != 0 {
		existing.BlockTimestamp = d.BlockTimestamp
	}
	if d.MemecoinAddress != "" {
		existing.MemecoinAddress = d.MemecoinAddress
	}
	if d.OwnerAddress != "" {
		existing.OwnerAddress = d.OwnerAddress
	}
	if d.Name != "" {
		existing.Name = d.Name
	}
	if d.Symbol != "" {
		existing.Symbol = d.Symbol
	}
	if !d.InitialSupply.IsZero() {
		existing.InitialSupply = d.InitialSupply
	}
	if !d.TotalSupply.IsZero() {
		existing.TotalSupply = d.TotalSupply
	}
	existing.UpdatedAt = now
	return nil
}

// GetByTransactionHash retrieves a deploy. Returns ErrNotFound if absent.
func (s *TokenDeployStore) GetByTransactionHash(_ context.Context, txHash string) (*domain.TokenDeploy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.byTxHash[txHash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	deployCopy := *d
	return &deployCopy, nil
}

// GetByMemecoinAddress retrieves the deploy for a token address.
func (s *TokenDeployStore) GetByMemecoinAddress(_ context.Context, address string) (*domain.TokenDeploy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.byTxHash {
		if d.MemecoinAddress == address {
			deployCopy := *d
			return &deployCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// List retrieves deploys ordered by creation time descending.
func (s *TokenDeployStore) List(_ context.Context, limit, offset int) ([]*domain.TokenDeploy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.TokenDeploy, 0, len(s.byTxHash))
	for _, d := range s.byTxHash {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt != all[j].CreatedAt {
			return all[i].CreatedAt > all[j].CreatedAt
		}
		return all[i].TransactionHash < all[j].TransactionHash
	})

	return pageDeploys(all, limit, offset), nil
}

func pageDeploys(all []*domain.TokenDeploy, limit, offset int) []*domain.TokenDeploy {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	out := make([]*domain.TokenDeploy, 0, end-offset)
	for _, d := range all[offset:end] {
		deployCopy := *d
		out = append(out, &deployCopy)
	}
	return out
}

// setSocials overwrites the denormalized social fields. Called by the
// metadata store under its own lock ordering.
func (s *TokenDeployStore) setSocials(address string, m *domain.TokenMetadata, now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.byTxHash {
		if d.MemecoinAddress == address {
			d.URL = m.URL
			d.Twitter = m.Twitter
			d.Telegram = m.Telegram
			d.Github = m.Github
			d.Website = m.Website
			d.UpdatedAt = now
		}
	}
}
