package storage

import (
	"context"

	"launchpad-indexer/internal/domain"
)

// LaunchOrder selects the ordering of paginated launch listings.
type LaunchOrder string

const (
	// OrderByLiquidityDesc orders by liquidity_raised descending.
	OrderByLiquidityDesc LaunchOrder = "liquidity"
	// OrderByCreatedDesc orders by creation time descending.
	OrderByCreatedDesc LaunchOrder = "created"
)

// TokenDeployStore provides access to token_deploys storage.
type TokenDeployStore interface {
	// Upsert inserts or merges a deploy keyed by transaction hash.
	// Empty optional fields on the incoming record leave stored values
	// untouched (partial merge, not overwrite-with-null).
	Upsert(ctx context.Context, d *domain.TokenDeploy) error

	// GetByTransactionHash retrieves a deploy. Returns ErrNotFound if absent.
	GetByTransactionHash(ctx context.Context, txHash string) (*domain.TokenDeploy, error)

	// GetByMemecoinAddress retrieves the deploy for a token address.
	GetByMemecoinAddress(ctx context.Context, address string) (*domain.TokenDeploy, error)

	// List retrieves deploys ordered by creation time descending.
	List(ctx context.Context, limit, offset int) ([]*domain.TokenDeploy, error)
}

// TokenLaunchStore provides access to token_launches storage.
type TokenLaunchStore interface {
	// Upsert inserts or merges a launch keyed by transaction hash.
	Upsert(ctx context.Context, l *domain.TokenLaunch) error

	// GetByMemecoinAddress retrieves the launch for a token address.
	// Returns ErrNotFound if absent.
	GetByMemecoinAddress(ctx context.Context, address string) (*domain.TokenLaunch, error)

	// List retrieves launches in the given order.
	List(ctx context.Context, limit, offset int, order LaunchOrder) ([]*domain.TokenLaunch, error)
}

// TokenMetadataStore provides access to token_metadata storage.
// It is the single writer of the denormalized social fields: an upsert also
// overwrites the same fields on the matching token_deploys and token_launches
// rows in one transaction.
type TokenMetadataStore interface {
	Upsert(ctx context.Context, m *domain.TokenMetadata) error

	// GetByMemecoinAddress retrieves metadata for a token address.
	// Returns ErrNotFound if absent.
	GetByMemecoinAddress(ctx context.Context, address string) (*domain.TokenMetadata, error)
}

// TokenTransactionStore provides access to token_transactions storage.
type TokenTransactionStore interface {
	// InsertWithEconomics appends the transaction row and, in the same
	// transactional unit, applies the recomputed launch economics and the
	// shareholder position. econ and pos may be nil when the corresponding
	// step is skipped. Returns ErrDuplicateKey if transfer_id exists; no
	// write happens in that case.
	InsertWithEconomics(ctx context.Context, tx *domain.TokenTransaction, econ *domain.LaunchEconomics, pos *domain.ShareholderPosition) error

	// GetByMemecoinAddress retrieves all transactions for a token, ordered
	// by timestamp ASC.
	GetByMemecoinAddress(ctx context.Context, address string) ([]*domain.TokenTransaction, error)

	// ListActiveTokens retrieves the distinct token addresses with at least
	// one transaction at or after the given timestamp.
	ListActiveTokens(ctx context.Context, sinceMs int64) ([]string, error)
}

// ShareholderStore provides read access to shareholder_positions storage.
// Writes go through TokenTransactionStore.InsertWithEconomics.
type ShareholderStore interface {
	// GetByOwnerToken retrieves the position for (owner, token).
	// Returns ErrNotFound if absent.
	GetByOwnerToken(ctx context.Context, owner, token string) (*domain.ShareholderPosition, error)

	// ListByToken retrieves positions for a token ordered by amount_owned
	// descending.
	ListByToken(ctx context.Context, token string, limit, offset int) ([]*domain.ShareholderPosition, error)
}

// CandlestickStore provides access to candlesticks storage.
type CandlestickStore interface {
	// UpsertBulk writes candles keyed by (token, interval, bucket);
	// existing candles are overwritten and their update timestamp bumped.
	UpsertBulk(ctx context.Context, candles []*domain.Candlestick) error

	// GetByToken retrieves candles for a token ordered by timestamp ASC.
	// intervalMinutes of 0 means all intervals.
	GetByToken(ctx context.Context, token string, intervalMinutes int) ([]*domain.Candlestick, error)
}

// ContractStateStore provides access to contract_states storage.
type ContractStateStore interface {
	// Get retrieves the state for a contract. Returns ErrNotFound if absent.
	Get(ctx context.Context, contractAddress string) (*domain.ContractState, error)

	// ApplyDelta atomically increments lifetime counters, creating the row
	// with the delta as initial totals when absent.
	ApplyDelta(ctx context.Context, contractAddress, network string, d *domain.LedgerDelta) error

	// SetCurrentEpoch moves the current-epoch pointer. The pointer only
	// advances: a stale index leaves the row untouched.
	SetCurrentEpoch(ctx context.Context, contractAddress, network string, epochIndex uint64, start, end, duration int64) error
}

// EpochStateStore provides access to epoch_states storage.
type EpochStateStore interface {
	// Get retrieves the state for (contract, epoch). Returns ErrNotFound
	// if absent.
	Get(ctx context.Context, contractAddress string, epochIndex uint64) (*domain.EpochState, error)

	// Create inserts a fresh epoch row. Returns ErrDuplicateKey if the
	// epoch already exists.
	Create(ctx context.Context, es *domain.EpochState) error

	// ApplyDelta atomically increments per-epoch counters, creating the
	// row on demand when absent.
	ApplyDelta(ctx context.Context, contractAddress string, epochIndex uint64, network string, d *domain.LedgerDelta) error
}

// UserProfileStore provides access to user_profiles storage.
type UserProfileStore interface {
	// Get retrieves a profile. Returns ErrNotFound if absent.
	Get(ctx context.Context, nostrID string) (*domain.UserProfile, error)

	// LinkIdentity binds an identity to a chain address. An admin-sourced
	// link sets is_add_by_admin and is never overwritten by a later
	// non-admin link.
	LinkIdentity(ctx context.Context, nostrID, starknetAddress string, byAdmin bool) error

	// ApplyDelta atomically increments lifetime counters, creating the
	// profile on demand when absent.
	ApplyDelta(ctx context.Context, nostrID string, d *domain.LedgerDelta) error
}

// UserEpochStateStore provides access to user_epoch_states storage.
type UserEpochStateStore interface {
	// Get retrieves the state for (user, epoch, contract). Returns
	// ErrNotFound if absent.
	Get(ctx context.Context, nostrID, contractAddress string, epochIndex uint64) (*domain.UserEpochState, error)

	// ApplyDelta atomically increments counters, creating the row on
	// demand when absent.
	ApplyDelta(ctx context.Context, nostrID, contractAddress string, epochIndex uint64, network string, d *domain.LedgerDelta) error
}

// ProcessedEventStore tracks applied event ids for deduplication.
type ProcessedEventStore interface {
	// Mark records an event id as processed. Returns false when the id was
	// already present (redelivery), true when this is the first delivery.
	Mark(ctx context.Context, eventID string) (bool, error)
}
