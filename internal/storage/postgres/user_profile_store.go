package postgres

import (
	"context"
	"fmt"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// UserProfileStore implements storage.UserProfileStore using PostgreSQL.
type UserProfileStore struct {
	pool *Pool
}

// NewUserProfileStore creates a new UserProfileStore.
func NewUserProfileStore(pool *Pool) *UserProfileStore {
	return &UserProfileStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserProfileStore = (*UserProfileStore)(nil)

// Get retrieves a profile.
func (s *UserProfileStore) Get(ctx context.Context, nostrID string) (*domain.UserProfile, error) {
	query := `
		SELECT nostr_id, starknet_address, is_add_by_admin,
		       total_tip::text, total_ai_score::text, total_vote_score::text,
		       total_amount_deposit::text, total_amount_claimed::text,
		       created_at, updated_at
		FROM user_profiles
		WHERE nostr_id = $1
	`

	var p domain.UserProfile
	var tip, ai, vote, deposit, claimed string

	err := s.pool.QueryRow(ctx, query, nostrID).Scan(
		&p.NostrID,
		&p.StarknetAddress,
		&p.IsAddByAdmin,
		&tip,
		&ai,
		&vote,
		&deposit,
		&claimed,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user profile: %w", err)
	}

	if p.TotalTip, err = parseDecimal(tip); err != nil {
		return nil, err
	}
	if p.TotalAiScore, err = parseDecimal(ai); err != nil {
		return nil, err
	}
	if p.TotalVoteScore, err = parseDecimal(vote); err != nil {
		return nil, err
	}
	if p.TotalAmountDeposit, err = parseDecimal(deposit); err != nil {
		return nil, err
	}
	if p.TotalAmountClaimed, err = parseDecimal(claimed); err != nil {
		return nil, err
	}
	return &p, nil
}

// LinkIdentity binds an identity to a chain address. An admin link is never
// overwritten by a later non-admin link; the WHERE clause makes the non-admin
// update a no-op in that case.
func (s *UserProfileStore) LinkIdentity(ctx context.Context, nostrID, starknetAddress string, byAdmin bool) error {
	if nostrID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO user_profiles (nostr_id, starknet_address, is_add_by_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (nostr_id) DO UPDATE SET
			starknet_address = EXCLUDED.starknet_address,
			is_add_by_admin  = user_profiles.is_add_by_admin OR EXCLUDED.is_add_by_admin,
			updated_at       = EXCLUDED.updated_at
		WHERE NOT user_profiles.is_add_by_admin OR EXCLUDED.is_add_by_admin
	`

	_, err := s.pool.Exec(ctx, query, nostrID, starknetAddress, byAdmin, nowMs())
	if err != nil {
		return fmt.Errorf("link identity: %w", err)
	}
	return nil
}

// ApplyDelta atomically increments lifetime counters, creating the profile on
// demand when absent.
func (s *UserProfileStore) ApplyDelta(ctx context.Context, nostrID string, d *domain.LedgerDelta) error {
	if nostrID == "" || d == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO user_profiles (
			nostr_id,
			total_tip, total_ai_score, total_vote_score,
			total_amount_deposit, total_amount_claimed,
			created_at, updated_at
		) VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7, $7)
		ON CONFLICT (nostr_id) DO UPDATE SET
			total_tip            = user_profiles.total_tip + EXCLUDED.total_tip,
			total_ai_score       = user_profiles.total_ai_score + EXCLUDED.total_ai_score,
			total_vote_score     = user_profiles.total_vote_score + EXCLUDED.total_vote_score,
			total_amount_deposit = user_profiles.total_amount_deposit + EXCLUDED.total_amount_deposit,
			total_amount_claimed = user_profiles.total_amount_claimed + EXCLUDED.total_amount_claimed,
			updated_at           = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		nostrID,
		decimalArg(d.TotalTip),
		decimalArg(d.TotalAiScore),
		decimalArg(d.TotalVoteScore),
		decimalArg(d.TotalAmountDeposit),
		decimalArg(d.AmountClaimed),
		nowMs(),
	)
	if err != nil {
		return fmt.Errorf("apply user profile delta: %w", err)
	}
	return nil
}
