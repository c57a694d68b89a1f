package domain

import "github.com/shopspring/decimal"

// ContractState is the top level of the reputation ledger: one row per
// scoring contract holding the current-epoch pointer and lifetime totals.
// Corresponds to contract_states table in PostgreSQL.
type ContractState struct {
	ContractAddress      string // natural key
	Network              string
	CurrentEpochIndex    uint64
	CurrentEpochStart    int64 // Unix milliseconds
	CurrentEpochEnd      int64
	CurrentEpochDuration int64 // milliseconds
	TotalTip             decimal.Decimal
	TotalAiScore         decimal.Decimal
	TotalVoteScore       decimal.Decimal
	TotalAmountDeposit   decimal.Decimal
	TotalAmountClaimed   decimal.Decimal
	CreatedAt            int64
	UpdatedAt            int64
}

// EpochState holds per-epoch totals for one contract.
// Corresponds to epoch_states table in PostgreSQL, keyed by
// (epoch_index, contract_address). Epochs are created implicitly by the
// arrival of a NewEpoch event; an epoch is closed the moment a later index is
// observed for the same contract.
type EpochState struct {
	EpochIndex         uint64
	ContractAddress    string
	Network            string
	StartTime          int64 // Unix milliseconds
	EndTime            int64
	EpochDuration      int64 // milliseconds
	TotalTip           decimal.Decimal
	TotalAiScore       decimal.Decimal
	TotalVoteScore     decimal.Decimal
	TotalAmountDeposit decimal.Decimal
	AmountClaimed      decimal.Decimal
	AmountAlgo         decimal.Decimal
	AmountVote         decimal.Decimal
	CreatedAt          int64
	UpdatedAt          int64
}

// UserProfile holds lifetime totals for one participant identity.
// Corresponds to user_profiles table in PostgreSQL, keyed by nostr_id.
type UserProfile struct {
	NostrID            string // natural key
	StarknetAddress    string
	IsAddByAdmin       bool // admin-sourced identity link, never silently overwritten
	TotalTip           decimal.Decimal
	TotalAiScore       decimal.Decimal
	TotalVoteScore     decimal.Decimal
	TotalAmountDeposit decimal.Decimal
	TotalAmountClaimed decimal.Decimal
	CreatedAt          int64
	UpdatedAt          int64
}

// UserEpochState is the per-user, per-epoch, per-contract breakdown.
// Corresponds to user_epoch_states table in PostgreSQL, keyed by
// (nostr_id, epoch_index, contract_address).
type UserEpochState struct {
	NostrID            string
	EpochIndex         uint64
	ContractAddress    string
	Network            string
	TotalTip           decimal.Decimal
	TotalAiScore       decimal.Decimal
	TotalVoteScore     decimal.Decimal
	TotalAmountDeposit decimal.Decimal
	AmountClaimed      decimal.Decimal
	CreatedAt          int64
	UpdatedAt          int64
}

// LedgerDelta is the set of counter increments one reputation event applies.
// Zero-valued fields leave the corresponding counter untouched.
type LedgerDelta struct {
	TotalTip           decimal.Decimal
	TotalAiScore       decimal.Decimal
	TotalVoteScore     decimal.Decimal
	TotalAmountDeposit decimal.Decimal
	AmountClaimed      decimal.Decimal
	AmountAlgo         decimal.Decimal
	AmountVote         decimal.Decimal
}

// IsZero reports whether the delta increments nothing.
func (d *LedgerDelta) IsZero() bool {
	return d.TotalTip.IsZero() &&
		d.TotalAiScore.IsZero() &&
		d.TotalVoteScore.IsZero() &&
		d.TotalAmountDeposit.IsZero() &&
		d.AmountClaimed.IsZero() &&
		d.AmountAlgo.IsZero() &&
		d.AmountVote.IsZero()
}
