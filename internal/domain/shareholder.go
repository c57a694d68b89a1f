package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ShareholderPosition is the per (owner, token) running balance and cost
// basis. Corresponds to shareholder_positions table in PostgreSQL, keyed by
// the owner_token composite id. Created on the first trade by an owner,
// updated on every subsequent trade.
type ShareholderPosition struct {
	OwnerTokenID    string          // "<owner>_<token>" composite key
	OwnerAddress    string
	MemecoinAddress string
	AmountOwned     decimal.Decimal // current balance
	AmountBuy       decimal.Decimal // cumulative bought amount
	TotalPaid       decimal.Decimal // cumulative quote spent
	IsClaimable     bool
	CreatedAt       int64
	UpdatedAt       int64
}

// OwnerTokenID builds the composite key for a shareholder position.
func OwnerTokenID(owner, token string) string {
	return fmt.Sprintf("%s_%s", owner, token)
}
