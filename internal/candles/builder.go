// Package candles rebuilds OHLC candlesticks from the transaction history of
// a token.
package candles

import (
	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/numeric"
)

const minuteMs = 60_000

// BuildCandles folds transactions into candles for one interval.
// Transactions must be ordered by timestamp ascending. A transaction with no
// derivable price contributes to no candle; a bucket therefore only exists if
// at least one validly priced transaction falls in it.
func BuildCandles(token string, txs []*domain.TokenTransaction, intervalMinutes int, nowMs int64) []*domain.Candlestick {
	intervalMs := int64(intervalMinutes) * minuteMs
	if intervalMs <= 0 {
		return nil
	}

	var candles []*domain.Candlestick
	var open *domain.Candlestick

	for _, tx := range txs {
		price, ok := numeric.DerivePrice(tx)
		if !ok {
			continue
		}

		bucket := tx.Timestamp / intervalMs * intervalMs
		if open == nil || open.Timestamp != bucket {
			if open != nil {
				candles = append(candles, open)
			}
			open = &domain.Candlestick{
				TokenAddress:    token,
				IntervalMinutes: intervalMinutes,
				Timestamp:       bucket,
				Open:            price,
				High:            price,
				Low:             price,
				Close:           price,
				UpdatedAt:       nowMs,
			}
			continue
		}

		if price.GreaterThan(open.High) {
			open.High = price
		}
		if price.LessThan(open.Low) {
			open.Low = price
		}
		open.Close = price
	}

	if open != nil {
		candles = append(candles, open)
	}
	return candles
}
