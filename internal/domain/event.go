package domain

import "github.com/shopspring/decimal"

// EventKind identifies a decoded on-chain event type.
type EventKind string

// Event kinds delivered by the upstream decoder.
const (
	EventTokenDeploy   EventKind = "token_deploy"
	EventTokenLaunch   EventKind = "token_launch"
	EventTokenMetadata EventKind = "token_metadata"
	EventTrade         EventKind = "trade"
	EventLinkIdentity  EventKind = "link_identity"
	EventTip           EventKind = "tip"
	EventDeposit       EventKind = "deposit"
	EventDistribution  EventKind = "distribution"
	EventNewEpoch      EventKind = "new_epoch"
)

// EventMeta carries the envelope fields present on every decoded event.
type EventMeta struct {
	Network         string
	TransactionHash string
	EventIndex      int   // index of the event within its transaction
	BlockNumber     uint64
	BlockTimestamp  int64 // Unix milliseconds
}

// Event is a decoded on-chain event routed through the consumer.
// AggregationKey returns the key all derived state touched by the event is
// partitioned on; events sharing a key must be applied serially.
type Event interface {
	Kind() EventKind
	Meta() EventMeta
	AggregationKey() string
}

// DeployEvent announces a new memecoin deployment.
type DeployEvent struct {
	EventMeta
	MemecoinAddress string
	OwnerAddress    string
	Name            string
	Symbol          string
	InitialSupply   decimal.Decimal
	TotalSupply     decimal.Decimal
}

func (e *DeployEvent) Kind() EventKind        { return EventTokenDeploy }
func (e *DeployEvent) Meta() EventMeta        { return e.EventMeta }
func (e *DeployEvent) AggregationKey() string { return e.MemecoinAddress }

// LaunchEvent opens the bonding-curve sale of a token.
type LaunchEvent struct {
	EventMeta
	MemecoinAddress      string
	OwnerAddress         string
	TotalSupply          decimal.Decimal
	CurrentSupply        decimal.Decimal
	InitialPoolSupplyDEX decimal.Decimal
}

func (e *LaunchEvent) Kind() EventKind        { return EventTokenLaunch }
func (e *LaunchEvent) Meta() EventMeta        { return e.EventMeta }
func (e *LaunchEvent) AggregationKey() string { return e.MemecoinAddress }

// MetadataEvent back-fills the social fields of a token.
type MetadataEvent struct {
	EventMeta
	MemecoinAddress string
	URL             *string
	Twitter         *string
	Telegram        *string
	Github          *string
	Website         *string
}

func (e *MetadataEvent) Kind() EventKind        { return EventTokenMetadata }
func (e *MetadataEvent) Meta() EventMeta        { return e.EventMeta }
func (e *MetadataEvent) AggregationKey() string { return e.MemecoinAddress }

// TradeEvent is one buy or sell against the bonding curve.
type TradeEvent struct {
	EventMeta
	TransferID      string
	MemecoinAddress string
	OwnerAddress    string // may be empty
	Amount          decimal.Decimal
	QuoteAmount     decimal.Decimal
	Price           *decimal.Decimal
	LastPrice       *decimal.Decimal
	TransactionType string // "buy" | "sell"
	Timestamp       int64  // Unix milliseconds
}

func (e *TradeEvent) Kind() EventKind        { return EventTrade }
func (e *TradeEvent) Meta() EventMeta        { return e.EventMeta }
func (e *TradeEvent) AggregationKey() string { return e.MemecoinAddress }

// LinkIdentityEvent binds an external identity to a chain address.
type LinkIdentityEvent struct {
	EventMeta
	NostrID         string
	StarknetAddress string
	IsAdmin         bool
}

func (e *LinkIdentityEvent) Kind() EventKind        { return EventLinkIdentity }
func (e *LinkIdentityEvent) Meta() EventMeta        { return e.EventMeta }
func (e *LinkIdentityEvent) AggregationKey() string { return e.NostrID }

// TipEvent credits tip amount and vote score to a user on a contract.
// EpochIndex is optional; when nil the contract's current epoch applies.
type TipEvent struct {
	EventMeta
	ContractAddress string
	NostrID         string
	EpochIndex      *uint64
	Amount          decimal.Decimal
	VoteScore       decimal.Decimal
}

func (e *TipEvent) Kind() EventKind        { return EventTip }
func (e *TipEvent) Meta() EventMeta        { return e.EventMeta }
func (e *TipEvent) AggregationKey() string { return e.ContractAddress }

// DepositEvent credits a deposit to a contract epoch; when an identity is
// attached the amount also counts toward the AI score.
type DepositEvent struct {
	EventMeta
	ContractAddress string
	NostrID         string // optional
	EpochIndex      *uint64
	Amount          decimal.Decimal
}

func (e *DepositEvent) Kind() EventKind        { return EventDeposit }
func (e *DepositEvent) Meta() EventMeta        { return e.EventMeta }
func (e *DepositEvent) AggregationKey() string { return e.ContractAddress }

// DistributionEvent records a reward claim paid out of an epoch.
type DistributionEvent struct {
	EventMeta
	ContractAddress string
	NostrID         string
	EpochIndex      *uint64
	AmountClaimed   decimal.Decimal
	AmountAlgo      decimal.Decimal
	AmountVote      decimal.Decimal
}

func (e *DistributionEvent) Kind() EventKind        { return EventDistribution }
func (e *DistributionEvent) Meta() EventMeta        { return e.EventMeta }
func (e *DistributionEvent) AggregationKey() string { return e.ContractAddress }

// NewEpochEvent advances a contract to the given epoch index.
type NewEpochEvent struct {
	EventMeta
	ContractAddress string
	EpochIndex      uint64
	StartTime       int64 // Unix milliseconds
	EndTime         int64
	EpochDuration   int64 // milliseconds
}

func (e *NewEpochEvent) Kind() EventKind        { return EventNewEpoch }
func (e *NewEpochEvent) Meta() EventMeta        { return e.EventMeta }
func (e *NewEpochEvent) AggregationKey() string { return e.ContractAddress }
