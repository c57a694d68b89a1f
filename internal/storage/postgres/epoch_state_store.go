package postgres

import (
	"context"
	"fmt"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// EpochStateStore implements storage.EpochStateStore using PostgreSQL.
type EpochStateStore struct {
	pool *Pool
}

// NewEpochStateStore creates a new EpochStateStore.
func NewEpochStateStore(pool *Pool) *EpochStateStore {
	return &EpochStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EpochStateStore = (*EpochStateStore)(nil)

// Get retrieves the state for (contract, epoch).
func (s *EpochStateStore) Get(ctx context.Context, contractAddress string, epochIndex uint64) (*domain.EpochState, error) {
	query := `
		SELECT epoch_index, contract_address, network,
		       start_time, end_time, epoch_duration,
		       total_tip::text, total_ai_score::text, total_vote_score::text,
		       total_amount_deposit::text, amount_claimed::text,
		       amount_algo::text, amount_vote::text,
		       created_at, updated_at
		FROM epoch_states
		WHERE contract_address = $1 AND epoch_index = $2
	`

	var es domain.EpochState
	var idx int64
	var tip, ai, vote, deposit, claimed, algo, voteAmt string

	err := s.pool.QueryRow(ctx, query, contractAddress, int64(epochIndex)).Scan(
		&idx,
		&es.ContractAddress,
		&es.Network,
		&es.StartTime,
		&es.EndTime,
		&es.EpochDuration,
		&tip,
		&ai,
		&vote,
		&deposit,
		&claimed,
		&algo,
		&voteAmt,
		&es.CreatedAt,
		&es.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get epoch state: %w", err)
	}

	es.EpochIndex = uint64(idx)
	if es.TotalTip, err = parseDecimal(tip); err != nil {
		return nil, err
	}
	if es.TotalAiScore, err = parseDecimal(ai); err != nil {
		return nil, err
	}
	if es.TotalVoteScore, err = parseDecimal(vote); err != nil {
		return nil, err
	}
	if es.TotalAmountDeposit, err = parseDecimal(deposit); err != nil {
		return nil, err
	}
	if es.AmountClaimed, err = parseDecimal(claimed); err != nil {
		return nil, err
	}
	if es.AmountAlgo, err = parseDecimal(algo); err != nil {
		return nil, err
	}
	if es.AmountVote, err = parseDecimal(voteAmt); err != nil {
		return nil, err
	}
	return &es, nil
}

// Create inserts a fresh epoch row. Returns ErrDuplicateKey if it exists.
func (s *EpochStateStore) Create(ctx context.Context, es *domain.EpochState) error {
	if es == nil || es.ContractAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO epoch_states (
			epoch_index, contract_address, network,
			start_time, end_time, epoch_duration,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (epoch_index, contract_address) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		int64(es.EpochIndex),
		es.ContractAddress,
		es.Network,
		es.StartTime,
		es.EndTime,
		es.EpochDuration,
		nowMs(),
	)
	if err != nil {
		return fmt.Errorf("create epoch state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

// ApplyDelta atomically increments per-epoch counters, creating the row on
// demand when absent.
func (s *EpochStateStore) ApplyDelta(ctx context.Context, contractAddress string, epochIndex uint64, network string, d *domain.LedgerDelta) error {
	if contractAddress == "" || d == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO epoch_states (
			epoch_index, contract_address, network,
			total_tip, total_ai_score, total_vote_score,
			total_amount_deposit, amount_claimed, amount_algo, amount_vote,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10::numeric, $11, $11)
		ON CONFLICT (epoch_index, contract_address) DO UPDATE SET
			total_tip            = epoch_states.total_tip + EXCLUDED.total_tip,
			total_ai_score       = epoch_states.total_ai_score + EXCLUDED.total_ai_score,
			total_vote_score     = epoch_states.total_vote_score + EXCLUDED.total_vote_score,
			total_amount_deposit = epoch_states.total_amount_deposit + EXCLUDED.total_amount_deposit,
			amount_claimed       = epoch_states.amount_claimed + EXCLUDED.amount_claimed,
			amount_algo          = epoch_states.amount_algo + EXCLUDED.amount_algo,
			amount_vote          = epoch_states.amount_vote + EXCLUDED.amount_vote,
			updated_at           = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		int64(epochIndex),
		contractAddress,
		network,
		decimalArg(d.TotalTip),
		decimalArg(d.TotalAiScore),
		decimalArg(d.TotalVoteScore),
		decimalArg(d.TotalAmountDeposit),
		decimalArg(d.AmountClaimed),
		decimalArg(d.AmountAlgo),
		decimalArg(d.AmountVote),
		nowMs(),
	)
	if err != nil {
		return fmt.Errorf("apply epoch state delta: %w", err)
	}
	return nil
}
