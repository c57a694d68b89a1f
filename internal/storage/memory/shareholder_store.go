package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// ShareholderStore is an in-memory implementation of storage.ShareholderStore.
// Writes go through TokenTransactionStore.InsertWithEconomics.
type ShareholderStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.ShareholderPosition
}

// NewShareholderStore creates a new in-memory shareholder store.
func NewShareholderStore() *ShareholderStore {
	return &ShareholderStore{
		byID: make(map[string]*domain.ShareholderPosition),
	}
}

var _ storage.ShareholderStore = (*ShareholderStore)(nil)

// GetByOwnerToken retrieves the position for (owner, token).
func (s *ShareholderStore) GetByOwnerToken(_ context.Context, owner, token string) (*domain.ShareholderPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[domain.OwnerTokenID(owner, token)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	posCopy := *p
	return &posCopy, nil
}

// ListByToken retrieves positions for a token ordered by amount_owned DESC.
func (s *ShareholderStore) ListByToken(_ context.Context, token string, limit, offset int) ([]*domain.ShareholderPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*domain.ShareholderPosition
	for _, p := range s.byID {
		if p.MemecoinAddress == token {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].AmountOwned.Equal(all[j].AmountOwned) {
			return all[i].AmountOwned.GreaterThan(all[j].AmountOwned)
		}
		return all[i].OwnerTokenID < all[j].OwnerTokenID
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	out := make([]*domain.ShareholderPosition, 0, end-offset)
	for _, p := range all[offset:end] {
		posCopy := *p
		out = append(out, &posCopy)
	}
	return out, nil
}

// put overwrites the position. Called by the transaction store.
func (s *ShareholderStore) put(pos *domain.ShareholderPosition, now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posCopy := *pos
	if existing, ok := s.byID[pos.OwnerTokenID]; ok {
		posCopy.CreatedAt = existing.CreatedAt
	} else {
		posCopy.CreatedAt = now
	}
	posCopy.UpdatedAt = now
	s.byID[pos.OwnerTokenID] = &posCopy
}
