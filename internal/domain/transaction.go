package domain

import "github.com/shopspring/decimal"

// TokenTransaction is one immutable row per bonding-curve trade.
// Corresponds to token_transactions table in PostgreSQL, keyed by transfer_id.
// Append-only.
type TokenTransaction struct {
	TransferID      string // natural key
	Network         string
	TransactionHash string
	MemecoinAddress string
	OwnerAddress    string           // buyer/seller, may be empty
	Amount          decimal.Decimal  // token amount, smallest unit
	QuoteAmount     decimal.Decimal  // quote amount, smallest unit
	Price           *decimal.Decimal // explicit execution price, optional
	LastPrice       *decimal.Decimal // last seen curve price, optional
	TransactionType string           // "buy" | "sell"
	Timestamp       int64            // Unix timestamp in milliseconds
	CreatedAt       int64            // record creation timestamp (ms)
}

// Transaction type constants
const (
	TransactionTypeBuy  = "buy"
	TransactionTypeSell = "sell"
)
