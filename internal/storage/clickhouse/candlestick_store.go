package clickhouse

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// CandlestickStore implements storage.CandlestickStore using ClickHouse.
// Candles live in a ReplacingMergeTree keyed by (token, interval, bucket):
// rebuilds insert fresh versions and reads collapse them with FINAL, so an
// upsert is just an insert with a newer updated_at.
type CandlestickStore struct {
	conn *Conn
}

// NewCandlestickStore creates a new CandlestickStore.
func NewCandlestickStore(conn *Conn) *CandlestickStore {
	return &CandlestickStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandlestickStore = (*CandlestickStore)(nil)

// UpsertBulk writes candles keyed by (token, interval, bucket). Existing
// candles are superseded by the newer updated_at version.
func (s *CandlestickStore) UpsertBulk(ctx context.Context, candles []*domain.Candlestick) error {
	if len(candles) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candlesticks (
			token_address, interval_minutes, timestamp,
			open, high, low, close, updated_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			c.TokenAddress, uint16(c.IntervalMinutes), c.Timestamp,
			c.Open, c.High, c.Low, c.Close, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByToken retrieves candles for a token ordered by timestamp ASC.
// intervalMinutes of 0 returns all intervals.
func (s *CandlestickStore) GetByToken(ctx context.Context, token string, intervalMinutes int) ([]*domain.Candlestick, error) {
	query := `
		SELECT token_address, interval_minutes, timestamp,
		       open, high, low, close, updated_at
		FROM candlesticks FINAL
		WHERE token_address = ?
	`
	args := []any{token}
	if intervalMinutes > 0 {
		query += ` AND interval_minutes = ?`
		args = append(args, uint16(intervalMinutes))
	}
	query += ` ORDER BY interval_minutes ASC, timestamp ASC`

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candles by token: %w", err)
	}
	defer rows.Close()

	var candles []*domain.Candlestick
	for rows.Next() {
		var c domain.Candlestick
		var interval uint16
		var open, high, low, closePrice decimal.Decimal

		err := rows.Scan(
			&c.TokenAddress, &interval, &c.Timestamp,
			&open, &high, &low, &closePrice, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}

		c.IntervalMinutes = int(interval)
		c.Open = open
		c.High = high
		c.Low = low
		c.Close = closePrice
		candles = append(candles, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}
	return candles, nil
}
