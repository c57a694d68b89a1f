package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TokenTransactionStore is an in-memory implementation of
// storage.TokenTransactionStore. The duplicate check on transfer_id happens
// before any write, so a redelivered trade mutates nothing.
type TokenTransactionStore struct {
	mu           sync.RWMutex
	byTransferID map[string]*domain.TokenTransaction

	launches     *TokenLaunchStore
	shareholders *ShareholderStore
}

// NewTokenTransactionStore creates a new in-memory token transaction store
// that applies economics to the given launch store and positions to the given
// shareholder store.
func NewTokenTransactionStore(launches *TokenLaunchStore, shareholders *ShareholderStore) *TokenTransactionStore {
	return &TokenTransactionStore{
		byTransferID: make(map[string]*domain.TokenTransaction),
		launches:     launches,
		shareholders: shareholders,
	}
}

var _ storage.TokenTransactionStore = (*TokenTransactionStore)(nil)

// InsertWithEconomics appends the transaction and applies the launch
// economics and shareholder position. Returns ErrDuplicateKey without
// writing anything if transfer_id already exists.
func (s *TokenTransactionStore) InsertWithEconomics(
	_ context.Context,
	t *domain.TokenTransaction,
	econ *domain.LaunchEconomics,
	pos *domain.ShareholderPosition,
) error {
	if t == nil || t.TransferID == "" || t.MemecoinAddress == "" {
		return storage.ErrInvalidInput
	}

	now := nowMs()

	s.mu.Lock()
	if _, exists := s.byTransferID[t.TransferID]; exists {
		s.mu.Unlock()
		return storage.ErrDuplicateKey
	}
	txCopy := *t
	txCopy.CreatedAt = now
	s.byTransferID[t.TransferID] = &txCopy
	s.mu.Unlock()

	if econ != nil && s.launches != nil {
		s.launches.applyEconomics(econ, now)
	}
	if pos != nil && s.shareholders != nil {
		s.shareholders.put(pos, now)
	}
	return nil
}

// GetByMemecoinAddress retrieves all transactions for a token, ordered by
// timestamp ASC.
func (s *TokenTransactionStore) GetByMemecoinAddress(_ context.Context, address string) ([]*domain.TokenTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []*domain.TokenTransaction
	for _, t := range s.byTransferID {
		if t.MemecoinAddress == address {
			txCopy := *t
			txs = append(txs, &txCopy)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Timestamp != txs[j].Timestamp {
			return txs[i].Timestamp < txs[j].Timestamp
		}
		return txs[i].TransferID < txs[j].TransferID
	})
	return txs, nil
}

// ListActiveTokens retrieves distinct token addresses traded at or after the
// given timestamp.
func (s *TokenTransactionStore) ListActiveTokens(_ context.Context, sinceMs int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range s.byTransferID {
		if t.Timestamp >= sinceMs {
			seen[t.MemecoinAddress] = struct{}{}
		}
	}
	tokens := make([]string, 0, len(seen))
	for addr := range seen {
		tokens = append(tokens, addr)
	}
	sort.Strings(tokens)
	return tokens, nil
}
