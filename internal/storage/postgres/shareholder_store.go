package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// ShareholderStore implements storage.ShareholderStore using PostgreSQL.
// Positions are written by TokenTransactionStore.InsertWithEconomics; this
// store only reads.
type ShareholderStore struct {
	pool *Pool
}

// NewShareholderStore creates a new ShareholderStore.
func NewShareholderStore(pool *Pool) *ShareholderStore {
	return &ShareholderStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ShareholderStore = (*ShareholderStore)(nil)

const shareholderColumns = `
	owner_token_id, owner_address, memecoin_address,
	amount_owned::text, amount_buy::text, total_paid::text,
	is_claimable, created_at, updated_at
`

// GetByOwnerToken retrieves the position for (owner, token).
func (s *ShareholderStore) GetByOwnerToken(ctx context.Context, owner, token string) (*domain.ShareholderPosition, error) {
	query := `SELECT ` + shareholderColumns + ` FROM shareholder_positions WHERE owner_token_id = $1`

	row := s.pool.QueryRow(ctx, query, domain.OwnerTokenID(owner, token))
	pos, err := scanShareholderPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get shareholder position: %w", err)
	}
	return pos, nil
}

// ListByToken retrieves positions for a token ordered by amount_owned DESC.
func (s *ShareholderStore) ListByToken(ctx context.Context, token string, limit, offset int) ([]*domain.ShareholderPosition, error) {
	query := `
		SELECT ` + shareholderColumns + `
		FROM shareholder_positions
		WHERE memecoin_address = $1
		ORDER BY amount_owned DESC, owner_token_id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, query, token, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list shareholder positions: %w", err)
	}
	defer rows.Close()

	var positions []*domain.ShareholderPosition
	for rows.Next() {
		pos, err := scanShareholderPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shareholder position row: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shareholder position rows: %w", err)
	}
	return positions, nil
}

// scanShareholderPosition scans a single row into a ShareholderPosition.
func scanShareholderPosition(row pgx.Row) (*domain.ShareholderPosition, error) {
	var p domain.ShareholderPosition
	var amountOwned, amountBuy, totalPaid string

	err := row.Scan(
		&p.OwnerTokenID,
		&p.OwnerAddress,
		&p.MemecoinAddress,
		&amountOwned,
		&amountBuy,
		&totalPaid,
		&p.IsClaimable,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.AmountOwned, err = parseDecimal(amountOwned); err != nil {
		return nil, err
	}
	if p.AmountBuy, err = parseDecimal(amountBuy); err != nil {
		return nil, err
	}
	if p.TotalPaid, err = parseDecimal(totalPaid); err != nil {
		return nil, err
	}
	return &p, nil
}
