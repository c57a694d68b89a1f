package postgres

import (
	"context"
	"fmt"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// UserEpochStateStore implements storage.UserEpochStateStore using PostgreSQL.
type UserEpochStateStore struct {
	pool *Pool
}

// NewUserEpochStateStore creates a new UserEpochStateStore.
func NewUserEpochStateStore(pool *Pool) *UserEpochStateStore {
	return &UserEpochStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserEpochStateStore = (*UserEpochStateStore)(nil)

// Get retrieves the state for (user, epoch, contract).
func (s *UserEpochStateStore) Get(ctx context.Context, nostrID, contractAddress string, epochIndex uint64) (*domain.UserEpochState, error) {
	query := `
		SELECT nostr_id, epoch_index, contract_address, network,
		       total_tip::text, total_ai_score::text, total_vote_score::text,
		       total_amount_deposit::text, amount_claimed::text,
		       created_at, updated_at
		FROM user_epoch_states
		WHERE nostr_id = $1 AND contract_address = $2 AND epoch_index = $3
	`

	var ues domain.UserEpochState
	var idx int64
	var tip, ai, vote, deposit, claimed string

	err := s.pool.QueryRow(ctx, query, nostrID, contractAddress, int64(epochIndex)).Scan(
		&ues.NostrID,
		&idx,
		&ues.ContractAddress,
		&ues.Network,
		&tip,
		&ai,
		&vote,
		&deposit,
		&claimed,
		&ues.CreatedAt,
		&ues.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user epoch state: %w", err)
	}

	ues.EpochIndex = uint64(idx)
	if ues.TotalTip, err = parseDecimal(tip); err != nil {
		return nil, err
	}
	if ues.TotalAiScore, err = parseDecimal(ai); err != nil {
		return nil, err
	}
	if ues.TotalVoteScore, err = parseDecimal(vote); err != nil {
		return nil, err
	}
	if ues.TotalAmountDeposit, err = parseDecimal(deposit); err != nil {
		return nil, err
	}
	if ues.AmountClaimed, err = parseDecimal(claimed); err != nil {
		return nil, err
	}
	return &ues, nil
}

// ApplyDelta atomically increments counters, creating the row on demand when
// absent.
func (s *UserEpochStateStore) ApplyDelta(ctx context.Context, nostrID, contractAddress string, epochIndex uint64, network string, d *domain.LedgerDelta) error {
	if nostrID == "" || contractAddress == "" || d == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO user_epoch_states (
			nostr_id, epoch_index, contract_address, network,
			total_tip, total_ai_score, total_vote_score,
			total_amount_deposit, amount_claimed,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10, $10)
		ON CONFLICT (nostr_id, epoch_index, contract_address) DO UPDATE SET
			total_tip            = user_epoch_states.total_tip + EXCLUDED.total_tip,
			total_ai_score       = user_epoch_states.total_ai_score + EXCLUDED.total_ai_score,
			total_vote_score     = user_epoch_states.total_vote_score + EXCLUDED.total_vote_score,
			total_amount_deposit = user_epoch_states.total_amount_deposit + EXCLUDED.total_amount_deposit,
			amount_claimed       = user_epoch_states.amount_claimed + EXCLUDED.amount_claimed,
			updated_at           = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		nostrID,
		int64(epochIndex),
		contractAddress,
		network,
		decimalArg(d.TotalTip),
		decimalArg(d.TotalAiScore),
		decimalArg(d.TotalVoteScore),
		decimalArg(d.TotalAmountDeposit),
		decimalArg(d.AmountClaimed),
		nowMs(),
	)
	if err != nil {
		return fmt.Errorf("apply user epoch state delta: %w", err)
	}
	return nil
}
