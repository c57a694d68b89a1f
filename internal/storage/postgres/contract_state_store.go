package postgres

import (
	"context"
	"fmt"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// ContractStateStore implements storage.ContractStateStore using PostgreSQL.
// Counter mutations are single upsert statements with the increment arithmetic
// on the store side, so concurrent events cannot lose an update.
type ContractStateStore struct {
	pool *Pool
}

// NewContractStateStore creates a new ContractStateStore.
func NewContractStateStore(pool *Pool) *ContractStateStore {
	return &ContractStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ContractStateStore = (*ContractStateStore)(nil)

// Get retrieves the state for a contract.
func (s *ContractStateStore) Get(ctx context.Context, contractAddress string) (*domain.ContractState, error) {
	query := `
		SELECT contract_address, network, current_epoch_index,
		       current_epoch_start, current_epoch_end, current_epoch_duration,
		       total_tip::text, total_ai_score::text, total_vote_score::text,
		       total_amount_deposit::text, total_amount_claimed::text,
		       created_at, updated_at
		FROM contract_states
		WHERE contract_address = $1
	`

	var cs domain.ContractState
	var tip, ai, vote, deposit, claimed string
	var epochIndex int64

	err := s.pool.QueryRow(ctx, query, contractAddress).Scan(
		&cs.ContractAddress,
		&cs.Network,
		&epochIndex,
		&cs.CurrentEpochStart,
		&cs.CurrentEpochEnd,
		&cs.CurrentEpochDuration,
		&tip,
		&ai,
		&vote,
		&deposit,
		&claimed,
		&cs.CreatedAt,
		&cs.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get contract state: %w", err)
	}

	cs.CurrentEpochIndex = uint64(epochIndex)
	if cs.TotalTip, err = parseDecimal(tip); err != nil {
		return nil, err
	}
	if cs.TotalAiScore, err = parseDecimal(ai); err != nil {
		return nil, err
	}
	if cs.TotalVoteScore, err = parseDecimal(vote); err != nil {
		return nil, err
	}
	if cs.TotalAmountDeposit, err = parseDecimal(deposit); err != nil {
		return nil, err
	}
	if cs.TotalAmountClaimed, err = parseDecimal(claimed); err != nil {
		return nil, err
	}
	return &cs, nil
}

// ApplyDelta atomically increments lifetime counters, creating the row with
// the delta as initial totals when absent.
func (s *ContractStateStore) ApplyDelta(ctx context.Context, contractAddress, network string, d *domain.LedgerDelta) error {
	if contractAddress == "" || d == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO contract_states (
			contract_address, network,
			total_tip, total_ai_score, total_vote_score,
			total_amount_deposit, total_amount_claimed,
			created_at, updated_at
		) VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8, $8)
		ON CONFLICT (contract_address) DO UPDATE SET
			total_tip            = contract_states.total_tip + EXCLUDED.total_tip,
			total_ai_score       = contract_states.total_ai_score + EXCLUDED.total_ai_score,
			total_vote_score     = contract_states.total_vote_score + EXCLUDED.total_vote_score,
			total_amount_deposit = contract_states.total_amount_deposit + EXCLUDED.total_amount_deposit,
			total_amount_claimed = contract_states.total_amount_claimed + EXCLUDED.total_amount_claimed,
			updated_at           = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
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
		return fmt.Errorf("apply contract state delta: %w", err)
	}
	return nil
}

// SetCurrentEpoch moves the current-epoch pointer. A stale index (not greater
// than the stored one) leaves the pointer untouched.
func (s *ContractStateStore) SetCurrentEpoch(ctx context.Context, contractAddress, network string, epochIndex uint64, start, end, duration int64) error {
	if contractAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO contract_states (
			contract_address, network, current_epoch_index,
			current_epoch_start, current_epoch_end, current_epoch_duration,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (contract_address) DO UPDATE SET
			current_epoch_index    = EXCLUDED.current_epoch_index,
			current_epoch_start    = EXCLUDED.current_epoch_start,
			current_epoch_end      = EXCLUDED.current_epoch_end,
			current_epoch_duration = EXCLUDED.current_epoch_duration,
			updated_at             = EXCLUDED.updated_at
		WHERE contract_states.current_epoch_index < EXCLUDED.current_epoch_index
	`

	_, err := s.pool.Exec(ctx, query,
		contractAddress,
		network,
		int64(epochIndex),
		start,
		end,
		duration,
		nowMs(),
	)
	if err != nil {
		return fmt.Errorf("set current epoch: %w", err)
	}
	return nil
}
