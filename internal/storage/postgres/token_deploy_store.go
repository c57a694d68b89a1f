package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TokenDeployStore implements storage.TokenDeployStore using PostgreSQL.
type TokenDeployStore struct {
	pool *Pool
}

// NewTokenDeployStore creates a new TokenDeployStore.
func NewTokenDeployStore(pool *Pool) *TokenDeployStore {
	return &TokenDeployStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenDeployStore = (*TokenDeployStore)(nil)

const tokenDeployColumns = `
	transaction_hash, network, block_timestamp, memecoin_address, owner_address,
	name, symbol, initial_supply::text, total_supply::text,
	url, twitter, telegram, github, website, created_at, updated_at
`

// Upsert inserts or merges a deploy keyed by transaction hash. Empty incoming
// optional fields leave stored values untouched. Social fields are owned by
// the metadata store and never written here.
func (s *TokenDeployStore) Upsert(ctx context.Context, d *domain.TokenDeploy) error {
	if d == nil || d.TransactionHash == "" {
		return storage.ErrInvalidInput
	}

	now := nowMs()
	query := `
		INSERT INTO token_deploys (
			transaction_hash, network, block_timestamp, memecoin_address, owner_address,
			name, symbol, initial_supply, total_supply, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10, $10)
		ON CONFLICT (transaction_hash) DO UPDATE SET
			network          = COALESCE(NULLIF(EXCLUDED.network, ''), token_deploys.network),
			block_timestamp  = CASE WHEN EXCLUDED.block_timestamp <> 0 THEN EXCLUDED.block_timestamp ELSE token_deploys.block_timestamp END,
			memecoin_address = COALESCE(NULLIF(EXCLUDED.memecoin_address, ''), token_deploys.memecoin_address),
			owner_address    = COALESCE(NULLIF(EXCLUDED.owner_address, ''), token_deploys.owner_address),
			name             = COALESCE(NULLIF(EXCLUDED.name, ''), token_deploys.name),
			symbol           = COALESCE(NULLIF(EXCLUDED.symbol, ''), token_deploys.symbol),
			initial_supply   = CASE WHEN EXCLUDED.initial_supply <> 0 THEN EXCLUDED.initial_supply ELSE token_deploys.initial_supply END,
			total_supply     = CASE WHEN EXCLUDED.total_supply <> 0 THEN EXCLUDED.total_supply ELSE token_deploys.total_supply END,
			updated_at       = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		d.TransactionHash,
		d.Network,
		d.BlockTimestamp,
		d.MemecoinAddress,
		d.OwnerAddress,
		d.Name,
		d.Symbol,
		decimalArg(d.InitialSupply),
		decimalArg(d.TotalSupply),
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert token deploy: %w", err)
	}
	return nil
}

// GetByTransactionHash retrieves a deploy. Returns ErrNotFound if absent.
func (s *TokenDeployStore) GetByTransactionHash(ctx context.Context, txHash string) (*domain.TokenDeploy, error) {
	query := `SELECT ` + tokenDeployColumns + ` FROM token_deploys WHERE transaction_hash = $1`

	row := s.pool.QueryRow(ctx, query, txHash)
	deploy, err := scanTokenDeploy(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token deploy by tx hash: %w", err)
	}
	return deploy, nil
}

// GetByMemecoinAddress retrieves the deploy for a token address.
func (s *TokenDeployStore) GetByMemecoinAddress(ctx context.Context, address string) (*domain.TokenDeploy, error) {
	query := `SELECT ` + tokenDeployColumns + ` FROM token_deploys WHERE memecoin_address = $1`

	row := s.pool.QueryRow(ctx, query, address)
	deploy, err := scanTokenDeploy(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token deploy by address: %w", err)
	}
	return deploy, nil
}

// List retrieves deploys ordered by creation time descending.
func (s *TokenDeployStore) List(ctx context.Context, limit, offset int) ([]*domain.TokenDeploy, error) {
	query := `
		SELECT ` + tokenDeployColumns + `
		FROM token_deploys
		ORDER BY block_timestamp DESC, transaction_hash ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list token deploys: %w", err)
	}
	defer rows.Close()

	var deploys []*domain.TokenDeploy
	for rows.Next() {
		d, err := scanTokenDeploy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token deploy row: %w", err)
		}
		deploys = append(deploys, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token deploy rows: %w", err)
	}
	return deploys, nil
}

// scanTokenDeploy scans a single row into a TokenDeploy.
func scanTokenDeploy(row pgx.Row) (*domain.TokenDeploy, error) {
	var d domain.TokenDeploy
	var initialSupply, totalSupply string

	err := row.Scan(
		&d.TransactionHash,
		&d.Network,
		&d.BlockTimestamp,
		&d.MemecoinAddress,
		&d.OwnerAddress,
		&d.Name,
		&d.Symbol,
		&initialSupply,
		&totalSupply,
		&d.URL,
		&d.Twitter,
		&d.Telegram,
		&d.Github,
		&d.Website,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if d.InitialSupply, err = parseDecimal(initialSupply); err != nil {
		return nil, err
	}
	if d.TotalSupply, err = parseDecimal(totalSupply); err != nil {
		return nil, err
	}
	return &d, nil
}
