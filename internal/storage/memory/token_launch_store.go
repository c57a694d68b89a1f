package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TokenLaunchStore is an in-memory implementation of storage.TokenLaunchStore.
type TokenLaunchStore struct {
	mu       sync.RWMutex
	byTxHash map[string]*domain.TokenLaunch
	byToken  map[string]*domain.TokenLaunch // memecoin_address is unique
}

// NewTokenLaunchStore creates a new in-memory token launch store.
func NewTokenLaunchStore() *TokenLaunchStore {
	return &TokenLaunchStore{
		byTxHash: make(map[string]*domain.TokenLaunch),
		byToken:  make(map[string]*domain.TokenLaunch),
	}
}

var _ storage.TokenLaunchStore = (*TokenLaunchStore)(nil)

// Upsert inserts or merges a launch keyed by transaction hash. Economics
// fields are only seeded here; later mutations go through
// TokenTransactionStore.InsertWithEconomics.
func (s *TokenLaunchStore) Upsert(_ context.Context, l *domain.TokenLaunch) error {
	if l == nil || l.TransactionHash == "" || l.MemecoinAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMs()
	existing, ok := s.byTxHash[l.TransactionHash]
	if !ok {
		if _, taken := s.byToken[l.MemecoinAddress]; taken {
			return storage.ErrDuplicateKey
		}
		launchCopy := *l
		launchCopy.CreatedAt = now
		launchCopy.UpdatedAt = now
		s.byTxHash[l.TransactionHash] = &launchCopy
		s.byToken[l.MemecoinAddress] = &launchCopy
		return nil
	}

	if l.Network != "" {
		existing.Network = l.Network
	}
	if l.BlockTimestamp != 0 {
		existing.BlockTimestamp = l.BlockTimestamp
	}
	if l.OwnerAddress != "" {
		existing.OwnerAddress = l.OwnerAddress
	}
	if !l.TotalSupply.IsZero() {
		existing.TotalSupply = l.TotalSupply
	}
	if !l.InitialPoolSupplyDEX.IsZero() {
		existing.InitialPoolSupplyDEX = l.InitialPoolSupplyDEX
	}
	existing.IsLiquidityAdded = existing.IsLiquidityAdded || l.IsLiquidityAdded
	existing.UpdatedAt = now
	return nil
}

// GetByMemecoinAddress retrieves the launch for a token address.
func (s *TokenLaunchStore) GetByMemecoinAddress(_ context.Context, address string) (*domain.TokenLaunch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.byToken[address]
	if !ok {
		return nil, storage.ErrNotFound
	}
	launchCopy := *l
	return &launchCopy, nil
}

// List retrieves launches ordered by liquidity or creation time descending.
func (s *TokenLaunchStore) List(_ context.Context, limit, offset int, order storage.LaunchOrder) ([]*domain.TokenLaunch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.TokenLaunch, 0, len(s.byTxHash))
	for _, l := range s.byTxHash {
		all = append(all, l)
	}

	if order == storage.OrderByLiquidityDesc {
		sort.Slice(all, func(i, j int) bool {
			if !all[i].LiquidityRaised.Equal(all[j].LiquidityRaised) {
				return all[i].LiquidityRaised.GreaterThan(all[j].LiquidityRaised)
			}
			return all[i].TransactionHash < all[j].TransactionHash
		})
	} else {
		sort.Slice(all, func(i, j int) bool {
			if all[i].BlockTimestamp != all[j].BlockTimestamp {
				return all[i].BlockTimestamp > all[j].BlockTimestamp
			}
			return all[i].TransactionHash < all[j].TransactionHash
		})
	}

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	out := make([]*domain.TokenLaunch, 0, end-offset)
	for _, l := range all[offset:end] {
		launchCopy := *l
		out = append(out, &launchCopy)
	}
	return out, nil
}

// applyEconomics overwrites the five recomputed fields. Called by the
// transaction store.
func (s *TokenLaunchStore) applyEconomics(econ *domain.LaunchEconomics, now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.byToken[econ.MemecoinAddress]
	if !ok {
		return
	}
	l.CurrentSupply = econ.CurrentSupply
	l.LiquidityRaised = econ.LiquidityRaised
	l.TotalTokenHolded = econ.TotalTokenHolded
	l.Price = econ.Price
	l.MarketCap = econ.MarketCap
	l.UpdatedAt = now
}

// setSocials overwrites the denormalized social fields. Called by the
// metadata store.
func (s *TokenLaunchStore) setSocials(address string, m *domain.TokenMetadata, now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.byToken[address]
	if !ok {
		return
	}
	l.URL = m.URL
	l.Twitter = m.Twitter
	l.Telegram = m.Telegram
	l.Github = m.Github
	l.Website = m.Website
	l.UpdatedAt = now
}
