package memory

import (
	"context"
	"sync"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// ContractStateStore is an in-memory implementation of
// storage.ContractStateStore.
type ContractStateStore struct {
	mu         sync.RWMutex
	byContract map[string]*domain.ContractState
}

// NewContractStateStore creates a new in-memory contract state store.
func NewContractStateStore() *ContractStateStore {
	return &ContractStateStore{
		byContract: make(map[string]*domain.ContractState),
	}
}

var _ storage.ContractStateStore = (*ContractStateStore)(nil)

// Get retrieves the state for a contract.
func (s *ContractStateStore) Get(_ context.Context, contractAddress string) (*domain.ContractState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.byContract[contractAddress]
	if !ok {
		return nil, storage.ErrNotFound
	}
	stateCopy := *cs
	return &stateCopy, nil
}

// ApplyDelta atomically increments lifetime counters, creating the row with
// the delta as initial totals when absent.
func (s *ContractStateStore) ApplyDelta(_ context.Context, contractAddress, network string, d *domain.LedgerDelta) error {
	if contractAddress == "" || d == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMs()
	cs, ok := s.byContract[contractAddress]
	if !ok {
		cs = &domain.ContractState{
			ContractAddress: contractAddress,
			Network:         network,
			CreatedAt:       now,
		}
		s.byContract[contractAddress] = cs
	}

	cs.TotalTip = cs.TotalTip.Add(d.TotalTip)
	cs.TotalAiScore = cs.TotalAiScore.Add(d.TotalAiScore)
	cs.TotalVoteScore = cs.TotalVoteScore.Add(d.TotalVoteScore)
	cs.TotalAmountDeposit = cs.TotalAmountDeposit.Add(d.TotalAmountDeposit)
	cs.TotalAmountClaimed = cs.TotalAmountClaimed.Add(d.AmountClaimed)
	cs.UpdatedAt = now
	return nil
}

// SetCurrentEpoch moves the current-epoch pointer. A stale index leaves the
// pointer untouched.
func (s *ContractStateStore) SetCurrentEpoch(_ context.Context, contractAddress, network string, epochIndex uint64, start, end, duration int64) error {
	if contractAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMs()
	cs, ok := s.byContract[contractAddress]
	if !ok {
		cs = &domain.ContractState{
			ContractAddress: contractAddress,
			Network:         network,
			CreatedAt:       now,
		}
		s.byContract[contractAddress] = cs
	} else if cs.CurrentEpochIndex >= epochIndex {
		return nil
	}

	cs.CurrentEpochIndex = epochIndex
	cs.CurrentEpochStart = start
	cs.CurrentEpochEnd = end
	cs.CurrentEpochDuration = duration
	cs.UpdatedAt = now
	return nil
}

// EpochStateStore is an in-memory implementation of storage.EpochStateStore.
type EpochStateStore struct {
	mu    sync.RWMutex
	byKey map[epochKey]*domain.EpochState
}

type epochKey struct {
	contract string
	index    uint64
}

// NewEpochStateStore creates a new in-memory epoch state store.
func NewEpochStateStore() *EpochStateStore {
	return &EpochStateStore{
		byKey: make(map[epochKey]*domain.EpochState),
	}
}

var _ storage.EpochStateStore = (*EpochStateStore)(nil)

// Get retrieves the state for (contract, epoch).
func (s *EpochStateStore) Get(_ context.Context, contractAddress string, epochIndex uint64) (*domain.EpochState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	es, ok := s.byKey[epochKey{contractAddress, epochIndex}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	stateCopy := *es
	return &stateCopy, nil
}

// Create inserts a fresh epoch row. Returns ErrDuplicateKey if it exists.
func (s *EpochStateStore) Create(_ context.Context, es *domain.EpochState) error {
	if es == nil || es.ContractAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := epochKey{es.ContractAddress, es.EpochIndex}
	if _, exists := s.byKey[key]; exists {
		return storage.ErrDuplicateKey
	}

	now := nowMs()
	stateCopy := *es
	stateCopy.CreatedAt = now
	stateCopy.UpdatedAt = now
	s.byKey[key] = &stateCopy
	return nil
}

// ApplyDelta atomically increments per-epoch counters, creating the row on
// demand when absent.
func (s *EpochStateStore) ApplyDelta(_ context.Context, contractAddress string, epochIndex uint64, network string, d *domain.LedgerDelta) error {
	if contractAddress == "" || d == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMs()
	key := epochKey{contractAddress, epochIndex}
	es, ok := s.byKey[key]
	if !ok {
		es = &domain.EpochState{
			EpochIndex:      epochIndex,
			ContractAddress: contractAddress,
			Network:         network,
			CreatedAt:       now,
		}
		s.byKey[key] = es
	}

	es.TotalTip = es.TotalTip.Add(d.TotalTip)
	es.TotalAiScore = es.TotalAiScore.Add(d.TotalAiScore)
	es.TotalVoteScore = es.TotalVoteScore.Add(d.TotalVoteScore)
	es.TotalAmountDeposit = es.TotalAmountDeposit.Add(d.TotalAmountDeposit)
	es.AmountClaimed = es.AmountClaimed.Add(d.AmountClaimed)
	es.AmountAlgo = es.AmountAlgo.Add(d.AmountAlgo)
	es.AmountVote = es.AmountVote.Add(d.AmountVote)
	es.UpdatedAt = now
	return nil
}

// UserProfileStore is an in-memory implementation of storage.UserProfileStore.
type UserProfileStore struct {
	mu       sync.RWMutex
	byNostID map[string]*domain.UserProfile
}

// NewUserProfileStore creates a new in-memory user profile store.
func NewUserProfileStore() *UserProfileStore {
	return &UserProfileStore{
		byNostID: make(map[string]*domain.UserProfile),
	}
}

var _ storage.UserProfileStore = (*UserProfileStore)(nil)

// Get retrieves a profile.
func (s *UserProfileStore) Get(_ context.Context, nostrID string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byNostID[nostrID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	profileCopy := *p
	return &profileCopy, nil
}

// LinkIdentity binds an identity to a chain address. An admin link is never
// overwritten by a later non-admin link.
func (s *UserProfileStore) LinkIdentity(_ context.Context, nostrID, starknetAddress string, byAdmin bool) error {
	if nostrID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMs()
	p, ok := s.byNostID[nostrID]
	if !ok {
		s.byNostID[nostrID] = &domain.UserProfile{
			NostrID:         nostrID,
			StarknetAddress: starknetAddress,
			IsAddByAdmin:    byAdmin,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return nil
	}

	if p.IsAddByAdmin && !byAdmin {
		return nil
	}
	p.StarknetAddress = starknetAddress
	p.IsAddByAdmin = p.IsAddByAdmin || byAdmin
	p.UpdatedAt = now
	return nil
}

// ApplyDelta atomically increments lifetime counters, creating the profile on
// demand when absent.
func (s *UserProfileStore) ApplyDelta(_ context.Context, nostrID string, d *domain.LedgerDelta) error {
	if nostrID == "" || d == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMs()
	p, ok := s.byNostID[nostrID]
	if !ok {
		p = &domain.UserProfile{
			NostrID:   nostrID,
			CreatedAt: now,
		}
		s.byNostID[nostrID] = p
	}

	p.TotalTip = p.TotalTip.Add(d.TotalTip)
	p.TotalAiScore = p.TotalAiScore.Add(d.TotalAiScore)
	p.TotalVoteScore = p.TotalVoteScore.Add(d.TotalVoteScore)
	p.TotalAmountDeposit = p.TotalAmountDeposit.Add(d.TotalAmountDeposit)
	p.TotalAmountClaimed = p.TotalAmountClaimed.Add(d.AmountClaimed)
	p.UpdatedAt = now
	return nil
}

// UserEpochStateStore is an in-memory implementation of
// storage.UserEpochStateStore.
type UserEpochStateStore struct {
	mu    sync.RWMutex
	byKey map[userEpochKey]*domain.UserEpochState
}

type userEpochKey struct {
	nostrID  string
	contract string
	index    uint64
}

// NewUserEpochStateStore creates a new in-memory user epoch state store.
func NewUserEpochStateStore() *UserEpochStateStore {
	return &UserEpochStateStore{
		byKey: make(map[userEpochKey]*domain.UserEpochState),
	}
}

var _ storage.UserEpochStateStore = (*UserEpochStateStore)(nil)

// Get retrieves the state for (user, epoch, contract).
func (s *UserEpochStateStore) Get(_ context.Context, nostrID, contractAddress string, epochIndex uint64) (*domain.UserEpochState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ues, ok := s.byKey[userEpochKey{nostrID, contractAddress, epochIndex}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	stateCopy := *ues
	return &stateCopy, nil
}

// ApplyDelta atomically increments counters, creating the row on demand when
// absent.
func (s *UserEpochStateStore) ApplyDelta(_ context.Context, nostrID, contractAddress string, epochIndex uint64, network string, d *domain.LedgerDelta) error {
	if nostrID == "" || contractAddress == "" || d == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMs()
	key := userEpochKey{nostrID, contractAddress, epochIndex}
	ues, ok := s.byKey[key]
	if !ok {
		ues = &domain.UserEpochState{
			NostrID:         nostrID,
			EpochIndex:      epochIndex,
			ContractAddress: contractAddress,
			Network:         network,
			CreatedAt:       now,
		}
		s.byKey[key] = ues
	}

	ues.TotalTip = ues.TotalTip.Add(d.TotalTip)
	ues.TotalAiScore = ues.TotalAiScore.Add(d.TotalAiScore)
	ues.TotalVoteScore = ues.TotalVoteScore.Add(d.TotalVoteScore)
	ues.TotalAmountDeposit = ues.TotalAmountDeposit.Add(d.TotalAmountDeposit)
	ues.AmountClaimed = ues.AmountClaimed.Add(d.AmountClaimed)
	ues.UpdatedAt = now
	return nil
}
