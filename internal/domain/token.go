package domain

import "github.com/shopspring/decimal"

// TokenDeploy is the identity record for a deployed memecoin.
// Corresponds to token_deploys table in PostgreSQL, keyed by the creation
// transaction hash.
type TokenDeploy struct {
	TransactionHash string          // creation tx hash, natural key
	Network         string          // source chain identifier
	BlockTimestamp  int64           // Unix timestamp in milliseconds
	MemecoinAddress string          // deployed token address
	OwnerAddress    string          // deployer address
	Name            string          // token name
	Symbol          string          // token symbol
	InitialSupply   decimal.Decimal // supply at deploy, smallest unit
	TotalSupply     decimal.Decimal // total supply, smallest unit

	// Social fields back-filled from token_metadata.
	URL      *string
	Twitter  *string
	Telegram *string
	Github   *string
	Website  *string

	CreatedAt int64 // record creation timestamp (ms)
	UpdatedAt int64 // last mutation timestamp (ms)
}

// TokenLaunch is the mutable economic state of a token's bonding-curve sale.
// Corresponds to token_launches table in PostgreSQL, one row per memecoin
// address. Created on a launch event and mutated by every transaction event.
type TokenLaunch struct {
	TransactionHash      string          // launch tx hash, natural key
	Network              string          // source chain identifier
	BlockTimestamp       int64           // Unix timestamp in milliseconds
	MemecoinAddress      string          // token address, unique
	OwnerAddress         string          // launcher address
	TotalSupply          decimal.Decimal // total supply, smallest unit
	CurrentSupply        decimal.Decimal // supply still held by the curve
	LiquidityRaised      decimal.Decimal // cumulative quote collected
	TotalTokenHolded     decimal.Decimal // cumulative tokens sold to holders
	Price                decimal.Decimal // derived curve price
	MarketCap            decimal.Decimal // total_supply * price
	InitialPoolSupplyDEX decimal.Decimal // pool supply used as price denominator
	IsLiquidityAdded     bool            // true once liquidity moved to a DEX

	// Social fields back-filled from token_metadata.
	URL      *string
	Twitter  *string
	Telegram *string
	Github   *string
	Website  *string

	CreatedAt int64
	UpdatedAt int64
}

// TokenMetadata holds the social/descriptive fields of a token.
// Corresponds to token_metadata table in PostgreSQL, keyed by the metadata
// transaction hash. Upserting metadata also back-propagates the social fields
// onto the matching TokenDeploy and TokenLaunch rows; the metadata store is
// the only writer of those denormalized fields.
type TokenMetadata struct {
	TransactionHash string // metadata tx hash, natural key
	Network         string
	MemecoinAddress string
	URL             *string
	Twitter         *string
	Telegram        *string
	Github          *string
	Website         *string
	CreatedAt       int64
	UpdatedAt       int64
}

// LaunchEconomics carries the five recomputed launch fields written back
// after a transaction event.
type LaunchEconomics struct {
	MemecoinAddress  string
	CurrentSupply    decimal.Decimal
	LiquidityRaised  decimal.Decimal
	TotalTokenHolded decimal.Decimal
	Price            decimal.Decimal
	MarketCap        decimal.Decimal
}
