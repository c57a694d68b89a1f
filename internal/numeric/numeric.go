// Package numeric centralizes decimal-string parsing and price derivation.
// All on-chain quantities arrive as decimal strings that can exceed float64
// range; they are parsed as arbitrary-precision decimals, never floats.
package numeric

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/domain"
)

// ParseAmount parses a decimal string into an arbitrary-precision decimal.
// An empty string parses to zero (optional fields are delivered as "").
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// ParseOptionalAmount parses a decimal string into a nullable decimal.
// Empty input yields nil rather than zero so absent and zero stay distinct.
func ParseOptionalAmount(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return &d, nil
}

// DerivePrice derives the trade price of a transaction using a fixed
// fallback chain:
//  1. the explicit price field, if present and >= 0
//  2. the last seen price field, under the same validity rule
//  3. quote_amount / amount, if amount > 0
//
// Returns false when no rule applies; such a transaction contributes to no
// candle.
func DerivePrice(tx *domain.TokenTransaction) (decimal.Decimal, bool) {
	if tx.Price != nil && !tx.Price.IsNegative() {
		return *tx.Price, true
	}
	if tx.LastPrice != nil && !tx.LastPrice.IsNegative() {
		return *tx.LastPrice, true
	}
	if tx.Amount.IsPositive() {
		return tx.QuoteAmount.Div(tx.Amount), true
	}
	return decimal.Zero, false
}
