package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TokenLaunchStore implements storage.TokenLaunchStore using PostgreSQL.
type TokenLaunchStore struct {
	pool *Pool
}

// NewTokenLaunchStore creates a new TokenLaunchStore.
func NewTokenLaunchStore(pool *Pool) *TokenLaunchStore {
	return &TokenLaunchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenLaunchStore = (*TokenLaunchStore)(nil)

const tokenLaunchColumns = `
	transaction_hash, network, block_timestamp, memecoin_address, owner_address,
	total_supply::text, current_supply::text, liquidity_raised::text,
	total_token_holded::text, price::text, market_cap::text,
	initial_pool_supply_dex::text, is_liquidity_added,
	url, twitter, telegram, github, website, created_at, updated_at
`

// Upsert inserts or merges a launch keyed by transaction hash. Economics
// fields are only seeded here; every later mutation goes through
// TokenTransactionStore.InsertWithEconomics.
func (s *TokenLaunchStore) Upsert(ctx context.Context, l *domain.TokenLaunch) error {
	if l == nil || l.TransactionHash == "" || l.MemecoinAddress == "" {
		return storage.ErrInvalidInput
	}

	now := nowMs()
	query := `
		INSERT INTO token_launches (
			transaction_hash, network, block_timestamp, memecoin_address, owner_address,
			total_supply, current_supply, liquidity_raised, total_token_holded,
			price, market_cap, initial_pool_supply_dex, is_liquidity_added,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6::numeric, $7::numeric, $8::numeric, $9::numeric,
			$10::numeric, $11::numeric, $12::numeric, $13,
			$14, $14
		)
		ON CONFLICT (transaction_hash) DO UPDATE SET
			network                 = COALESCE(NULLIF(EXCLUDED.network, ''), token_launches.network),
			block_timestamp         = CASE WHEN EXCLUDED.block_timestamp <> 0 THEN EXCLUDED.block_timestamp ELSE token_launches.block_timestamp END,
			owner_address           = COALESCE(NULLIF(EXCLUDED.owner_address, ''), token_launches.owner_address),
			total_supply            = CASE WHEN EXCLUDED.total_supply <> 0 THEN EXCLUDED.total_supply ELSE token_launches.total_supply END,
			initial_pool_supply_dex = CASE WHEN EXCLUDED.initial_pool_supply_dex <> 0 THEN EXCLUDED.initial_pool_supply_dex ELSE token_launches.initial_pool_supply_dex END,
			is_liquidity_added      = token_launches.is_liquidity_added OR EXCLUDED.is_liquidity_added,
			updated_at              = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		l.TransactionHash,
		l.Network,
		l.BlockTimestamp,
		l.MemecoinAddress,
		l.OwnerAddress,
		decimalArg(l.TotalSupply),
		decimalArg(l.CurrentSupply),
		decimalArg(l.LiquidityRaised),
		decimalArg(l.TotalTokenHolded),
		decimalArg(l.Price),
		decimalArg(l.MarketCap),
		decimalArg(l.InitialPoolSupplyDEX),
		l.IsLiquidityAdded,
		now,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			// Another launch row claims the same memecoin address.
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("upsert token launch: %w", err)
	}
	return nil
}

// GetByMemecoinAddress retrieves the launch for a token address.
func (s *TokenLaunchStore) GetByMemecoinAddress(ctx context.Context, address string) (*domain.TokenLaunch, error) {
	query := `SELECT ` + tokenLaunchColumns + ` FROM token_launches WHERE memecoin_address = $1`

	row := s.pool.QueryRow(ctx, query, address)
	launch, err := scanTokenLaunch(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token launch by address: %w", err)
	}
	return launch, nil
}

// List retrieves launches ordered by liquidity or creation time descending.
func (s *TokenLaunchStore) List(ctx context.Context, limit, offset int, order storage.LaunchOrder) ([]*domain.TokenLaunch, error) {
	orderBy := "block_timestamp DESC, transaction_hash ASC"
	if order == storage.OrderByLiquidityDesc {
		orderBy = "liquidity_raised DESC, transaction_hash ASC"
	}

	query := `
		SELECT ` + tokenLaunchColumns + `
		FROM token_launches
		ORDER BY ` + orderBy + `
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list token launches: %w", err)
	}
	defer rows.Close()

	var launches []*domain.TokenLaunch
	for rows.Next() {
		l, err := scanTokenLaunch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token launch row: %w", err)
		}
		launches = append(launches, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token launch rows: %w", err)
	}
	return launches, nil
}

// scanTokenLaunch scans a single row into a TokenLaunch.
func scanTokenLaunch(row pgx.Row) (*domain.TokenLaunch, error) {
	var l domain.TokenLaunch
	var totalSupply, currentSupply, liquidityRaised, totalTokenHolded string
	var price, marketCap, initialPoolSupply string

	err := row.Scan(
		&l.TransactionHash,
		&l.Network,
		&l.BlockTimestamp,
		&l.MemecoinAddress,
		&l.OwnerAddress,
		&totalSupply,
		&currentSupply,
		&liquidityRaised,
		&totalTokenHolded,
		&price,
		&marketCap,
		&initialPoolSupply,
		&l.IsLiquidityAdded,
		&l.URL,
		&l.Twitter,
		&l.Telegram,
		&l.Github,
		&l.Website,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if l.TotalSupply, err = parseDecimal(totalSupply); err != nil {
		return nil, err
	}
	if l.CurrentSupply, err = parseDecimal(currentSupply); err != nil {
		return nil, err
	}
	if l.LiquidityRaised, err = parseDecimal(liquidityRaised); err != nil {
		return nil, err
	}
	if l.TotalTokenHolded, err = parseDecimal(totalTokenHolded); err != nil {
		return nil, err
	}
	if l.Price, err = parseDecimal(price); err != nil {
		return nil, err
	}
	if l.MarketCap, err = parseDecimal(marketCap); err != nil {
		return nil, err
	}
	if l.InitialPoolSupplyDEX, err = parseDecimal(initialPoolSupply); err != nil {
		return nil, err
	}
	return &l, nil
}
