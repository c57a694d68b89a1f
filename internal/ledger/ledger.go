// Package ledger maintains the reputation/epoch ledger: per-contract,
// per-epoch, per-user and per-user-per-epoch counters driven by tip, deposit,
// distribution, identity and epoch events.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// Ledger applies reputation events across the four counter levels. Events for
// the same contract must be applied serially (the consumer partitions on
// contract address); user profiles are shared across partitions, so every
// level is written with atomic store-side increments.
type Ledger struct {
	contracts  storage.ContractStateStore
	epochs     storage.EpochStateStore
	profiles   storage.UserProfileStore
	userEpochs storage.UserEpochStateStore
	logger     *zap.Logger
}

// NewLedger creates a Ledger over the given stores.
func NewLedger(
	contracts storage.ContractStateStore,
	epochs storage.EpochStateStore,
	profiles storage.UserProfileStore,
	userEpochs storage.UserEpochStateStore,
	logger *zap.Logger,
) *Ledger {
	return &Ledger{
		contracts:  contracts,
		epochs:     epochs,
		profiles:   profiles,
		userEpochs: userEpochs,
		logger:     logger.Named("ledger"),
	}
}

// ApplyLinkIdentity binds an identity to a chain address.
func (l *Ledger) ApplyLinkIdentity(ctx context.Context, e *domain.LinkIdentityEvent) error {
	if e.NostrID == "" {
		return fmt.Errorf("link identity %s: %w", e.TransactionHash, domain.ErrMalformedEvent)
	}
	if err := l.profiles.LinkIdentity(ctx, e.NostrID, e.StarknetAddress, e.IsAdmin); err != nil {
		return fmt.Errorf("apply link identity %s: %w", e.TransactionHash, err)
	}
	return nil
}

// ApplyNewEpoch opens a new epoch for a contract and advances the
// current-epoch pointer. A replayed NewEpoch is benign.
func (l *Ledger) ApplyNewEpoch(ctx context.Context, e *domain.NewEpochEvent) error {
	if e.ContractAddress == "" {
		return fmt.Errorf("new epoch %s: %w", e.TransactionHash, domain.ErrMalformedEvent)
	}

	err := l.epochs.Create(ctx, &domain.EpochState{
		EpochIndex:      e.EpochIndex,
		ContractAddress: e.ContractAddress,
		Network:         e.Network,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		EpochDuration:   e.EpochDuration,
	})
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("create epoch %d for %s: %w", e.EpochIndex, e.ContractAddress, err)
	}

	err = l.contracts.SetCurrentEpoch(ctx, e.ContractAddress, e.Network,
		e.EpochIndex, e.StartTime, e.EndTime, e.EpochDuration)
	if err != nil {
		return fmt.Errorf("advance epoch pointer for %s: %w", e.ContractAddress, err)
	}
	return nil
}

// ApplyTip credits a tip amount and vote score to a user on a contract.
func (l *Ledger) ApplyTip(ctx context.Context, e *domain.TipEvent) error {
	if e.ContractAddress == "" || e.NostrID == "" {
		return fmt.Errorf("tip %s: %w", e.TransactionHash, domain.ErrMalformedEvent)
	}

	delta := &domain.LedgerDelta{
		TotalTip:       e.Amount,
		TotalVoteScore: e.VoteScore,
	}
	return l.applyCounters(ctx, e.ContractAddress, e.Network, e.NostrID, e.EpochIndex, e.BlockTimestamp, delta)
}

// ApplyDeposit credits a deposit to a contract epoch. When an identity is
// attached, the amount also counts toward the AI score and the user levels.
func (l *Ledger) ApplyDeposit(ctx context.Context, e *domain.DepositEvent) error {
	if e.ContractAddress == "" {
		return fmt.Errorf("deposit %s: %w", e.TransactionHash, domain.ErrMalformedEvent)
	}

	delta := &domain.LedgerDelta{TotalAmountDeposit: e.Amount}
	if e.NostrID != "" {
		delta.TotalAiScore = e.Amount
	}
	return l.applyCounters(ctx, e.ContractAddress, e.Network, e.NostrID, e.EpochIndex, e.BlockTimestamp, delta)
}

// ApplyDistribution records a reward claim paid out of an epoch.
func (l *Ledger) ApplyDistribution(ctx context.Context, e *domain.DistributionEvent) error {
	if e.ContractAddress == "" || e.NostrID == "" {
		return fmt.Errorf("distribution %s: %w", e.TransactionHash, domain.ErrMalformedEvent)
	}

	delta := &domain.LedgerDelta{
		AmountClaimed: e.AmountClaimed,
		AmountAlgo:    e.AmountAlgo,
		AmountVote:    e.AmountVote,
	}
	return l.applyCounters(ctx, e.ContractAddress, e.Network, e.NostrID, e.EpochIndex, e.BlockTimestamp, delta)
}

// applyCounters resolves the target epoch and applies the delta to all
// levels: contract lifetime totals, epoch totals, and when an identity is
// attached the user profile and user-epoch breakdown.
func (l *Ledger) applyCounters(ctx context.Context, contract, network, nostrID string, explicitEpoch *uint64, blockTimestamp int64, delta *domain.LedgerDelta) error {
	epochIndex, err := l.resolveEpoch(ctx, contract, network, explicitEpoch, blockTimestamp)
	if err != nil {
		return err
	}

	if err := l.contracts.ApplyDelta(ctx, contract, network, delta); err != nil {
		return fmt.Errorf("apply contract delta for %s: %w", contract, err)
	}
	if err := l.epochs.ApplyDelta(ctx, contract, epochIndex, network, delta); err != nil {
		return fmt.Errorf("apply epoch delta for %s/%d: %w", contract, epochIndex, err)
	}

	if nostrID == "" {
		return nil
	}
	if err := l.profiles.ApplyDelta(ctx, nostrID, delta); err != nil {
		return fmt.Errorf("apply profile delta for %s: %w", nostrID, err)
	}
	if err := l.userEpochs.ApplyDelta(ctx, nostrID, contract, epochIndex, network, delta); err != nil {
		return fmt.Errorf("apply user epoch delta for %s/%s/%d: %w", nostrID, contract, epochIndex, err)
	}
	return nil
}

// resolveEpoch picks the epoch a counter event applies to. With no explicit
// index the contract's current epoch applies. An explicit index ahead of the
// current one advances the machine first (implied NewEpoch: counter events
// may race ahead of the NewEpoch delivery and must not be dropped); an older
// index applies to its own epoch row, created on demand by the stores.
func (l *Ledger) resolveEpoch(ctx context.Context, contract, network string, explicit *uint64, blockTimestamp int64) (uint64, error) {
	cs, err := l.contracts.Get(ctx, contract)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("load contract state for %s: %w", contract, err)
	}

	machine := MachineFor(0, false)
	if cs != nil {
		machine = MachineFor(cs.CurrentEpochIndex, true)
	}

	if explicit == nil {
		return machine.Index, nil
	}

	next, advanced := machine.Transition(*explicit)
	if advanced && next.Index > machine.Index {
		l.logger.Warn("counter event ahead of current epoch, advancing",
			zap.String("contract_address", contract),
			zap.Uint64("from", machine.Index),
			zap.Uint64("to", next.Index))
		err := l.contracts.SetCurrentEpoch(ctx, contract, network, next.Index, blockTimestamp, 0, 0)
		if err != nil {
			return 0, fmt.Errorf("advance implied epoch for %s: %w", contract, err)
		}
	}
	return *explicit, nil
}
