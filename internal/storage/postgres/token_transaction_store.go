package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TokenTransactionStore implements storage.TokenTransactionStore using
// PostgreSQL.
type TokenTransactionStore struct {
	pool *Pool
}

// NewTokenTransactionStore creates a new TokenTransactionStore.
func NewTokenTransactionStore(pool *Pool) *TokenTransactionStore {
	return &TokenTransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenTransactionStore = (*TokenTransactionStore)(nil)

// InsertWithEconomics appends the transaction row and applies the launch
// economics and shareholder position in the same transaction. Returns
// ErrDuplicateKey without writing anything if transfer_id already exists.
func (s *TokenTransactionStore) InsertWithEconomics(
	ctx context.Context,
	t *domain.TokenTransaction,
	econ *domain.LaunchEconomics,
	pos *domain.ShareholderPosition,
) error {
	if t == nil || t.TransferID == "" || t.MemecoinAddress == "" {
		return storage.ErrInvalidInput
	}

	now := nowMs()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO token_transactions (
			transfer_id, network, transaction_hash, memecoin_address, owner_address,
			amount, quote_amount, price, last_price, transaction_type, timestamp, created_at
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10, $11, $12)
		ON CONFLICT (transfer_id) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insert,
		t.TransferID,
		t.Network,
		t.TransactionHash,
		t.MemecoinAddress,
		t.OwnerAddress,
		decimalArg(t.Amount),
		decimalArg(t.QuoteAmount),
		nullDecimalArg(t.Price),
		nullDecimalArg(t.LastPrice),
		t.TransactionType,
		t.Timestamp,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert token transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrDuplicateKey
	}

	if econ != nil {
		update := `
			UPDATE token_launches SET
				current_supply     = $2::numeric,
				liquidity_raised   = $3::numeric,
				total_token_holded = $4::numeric,
				price              = $5::numeric,
				market_cap         = $6::numeric,
				updated_at         = $7
			WHERE memecoin_address = $1
		`
		if _, err := tx.Exec(ctx, update,
			econ.MemecoinAddress,
			decimalArg(econ.CurrentSupply),
			decimalArg(econ.LiquidityRaised),
			decimalArg(econ.TotalTokenHolded),
			decimalArg(econ.Price),
			decimalArg(econ.MarketCap),
			now,
		); err != nil {
			return fmt.Errorf("update launch economics: %w", err)
		}
	}

	if pos != nil {
		upsert := `
			INSERT INTO shareholder_positions (
				owner_token_id, owner_address, memecoin_address,
				amount_owned, amount_buy, total_paid, is_claimable,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $8)
			ON CONFLICT (owner_token_id) DO UPDATE SET
				amount_owned = EXCLUDED.amount_owned,
				amount_buy   = EXCLUDED.amount_buy,
				total_paid   = EXCLUDED.total_paid,
				is_claimable = EXCLUDED.is_claimable,
				updated_at   = EXCLUDED.updated_at
		`
		if _, err := tx.Exec(ctx, upsert,
			pos.OwnerTokenID,
			pos.OwnerAddress,
			pos.MemecoinAddress,
			decimalArg(pos.AmountOwned),
			decimalArg(pos.AmountBuy),
			decimalArg(pos.TotalPaid),
			pos.IsClaimable,
			now,
		); err != nil {
			return fmt.Errorf("upsert shareholder position: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMemecoinAddress retrieves all transactions for a token, ordered by
// timestamp ASC.
func (s *TokenTransactionStore) GetByMemecoinAddress(ctx context.Context, address string) ([]*domain.TokenTransaction, error) {
	query := `
		SELECT transfer_id, network, transaction_hash, memecoin_address, owner_address,
		       amount::text, quote_amount::text, price::text, last_price::text,
		       transaction_type, timestamp, created_at
		FROM token_transactions
		WHERE memecoin_address = $1
		ORDER BY timestamp ASC, transfer_id ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("get transactions by address: %w", err)
	}
	defer rows.Close()

	return scanTokenTransactions(rows)
}

// ListActiveTokens retrieves distinct token addresses traded at or after the
// given timestamp.
func (s *TokenTransactionStore) ListActiveTokens(ctx context.Context, sinceMs int64) ([]string, error) {
	query := `
		SELECT DISTINCT memecoin_address
		FROM token_transactions
		WHERE timestamp >= $1
		ORDER BY memecoin_address ASC
	`

	rows, err := s.pool.Query(ctx, query, sinceMs)
	if err != nil {
		return nil, fmt.Errorf("list active tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan active token row: %w", err)
		}
		tokens = append(tokens, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active token rows: %w", err)
	}
	return tokens, nil
}

// scanTokenTransactions scans multiple rows into a slice of TokenTransaction.
func scanTokenTransactions(rows pgx.Rows) ([]*domain.TokenTransaction, error) {
	var txs []*domain.TokenTransaction

	for rows.Next() {
		var t domain.TokenTransaction
		var amount, quoteAmount string
		var price, lastPrice *string

		err := rows.Scan(
			&t.TransferID,
			&t.Network,
			&t.TransactionHash,
			&t.MemecoinAddress,
			&t.OwnerAddress,
			&amount,
			&quoteAmount,
			&price,
			&lastPrice,
			&t.TransactionType,
			&t.Timestamp,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		if t.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if t.QuoteAmount, err = parseDecimal(quoteAmount); err != nil {
			return nil, err
		}
		if t.Price, err = parseNullDecimal(price); err != nil {
			return nil, err
		}
		if t.LastPrice, err = parseNullDecimal(lastPrice); err != nil {
			return nil, err
		}

		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txs, nil
}
