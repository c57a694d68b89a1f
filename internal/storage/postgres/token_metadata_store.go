package postgres

import (
	"context"
	"fmt"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TokenMetadataStore implements storage.TokenMetadataStore using PostgreSQL.
// Upsert is the single write path for the social fields denormalized onto
// token_deploys and token_launches; all three tables are written in one
// transaction so the fields stay equal across them.
type TokenMetadataStore struct {
	pool *Pool
}

// NewTokenMetadataStore creates a new TokenMetadataStore.
func NewTokenMetadataStore(pool *Pool) *TokenMetadataStore {
	return &TokenMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

// Upsert inserts or replaces metadata keyed by transaction hash and
// back-propagates the social fields onto the deploy and launch rows for the
// same memecoin address.
func (s *TokenMetadataStore) Upsert(ctx context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.TransactionHash == "" || m.MemecoinAddress == "" {
		return storage.ErrInvalidInput
	}

	now := nowMs()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO token_metadata (
			transaction_hash, network, memecoin_address,
			url, twitter, telegram, github, website,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (transaction_hash) DO UPDATE SET
			url        = EXCLUDED.url,
			twitter    = EXCLUDED.twitter,
			telegram   = EXCLUDED.telegram,
			github     = EXCLUDED.github,
			website    = EXCLUDED.website,
			updated_at = EXCLUDED.updated_at
	`
	_, err = tx.Exec(ctx, upsert,
		m.TransactionHash,
		m.Network,
		m.MemecoinAddress,
		m.URL,
		m.Twitter,
		m.Telegram,
		m.Github,
		m.Website,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert token metadata: %w", err)
	}

	propagateDeploy := `
		UPDATE token_deploys SET
			url = $2, twitter = $3, telegram = $4, github = $5, website = $6,
			updated_at = $7
		WHERE memecoin_address = $1
	`
	if _, err := tx.Exec(ctx, propagateDeploy,
		m.MemecoinAddress, m.URL, m.Twitter, m.Telegram, m.Github, m.Website, now,
	); err != nil {
		return fmt.Errorf("propagate metadata to token deploy: %w", err)
	}

	propagateLaunch := `
		UPDATE token_launches SET
			url = $2, twitter = $3, telegram = $4, github = $5, website = $6,
			updated_at = $7
		WHERE memecoin_address = $1
	`
	if _, err := tx.Exec(ctx, propagateLaunch,
		m.MemecoinAddress, m.URL, m.Twitter, m.Telegram, m.Github, m.Website, now,
	); err != nil {
		return fmt.Errorf("propagate metadata to token launch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMemecoinAddress retrieves the most recent metadata for a token.
func (s *TokenMetadataStore) GetByMemecoinAddress(ctx context.Context, address string) (*domain.TokenMetadata, error) {
	query := `
		SELECT transaction_hash, network, memecoin_address,
		       url, twitter, telegram, github, website, created_at, updated_at
		FROM token_metadata
		WHERE memecoin_address = $1
		ORDER BY updated_at DESC, transaction_hash ASC
		LIMIT 1
	`

	var m domain.TokenMetadata
	err := s.pool.QueryRow(ctx, query, address).Scan(
		&m.TransactionHash,
		&m.Network,
		&m.MemecoinAddress,
		&m.URL,
		&m.Twitter,
		&m.Telegram,
		&m.Github,
		&m.Website,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token metadata by address: %w", err)
	}
	return &m, nil
}
