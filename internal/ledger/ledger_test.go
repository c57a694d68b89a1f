package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage/memory"
)

type fixture struct {
	ledger     *Ledger
	contracts  *memory.ContractStateStore
	epochs     *memory.EpochStateStore
	profiles   *memory.UserProfileStore
	userEpochs *memory.UserEpochStateStore
}

func newFixture() *fixture {
	contracts := memory.NewContractStateStore()
	epochs := memory.NewEpochStateStore()
	profiles := memory.NewUserProfileStore()
	userEpochs := memory.NewUserEpochStateStore()

	return &fixture{
		ledger:     NewLedger(contracts, epochs, profiles, userEpochs, zap.NewNop()),
		contracts:  contracts,
		epochs:     epochs,
		profiles:   profiles,
		userEpochs: userEpochs,
	}
}

func TestApplyTip_IncrementsAllFourLevels(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.ledger.ApplyNewEpoch(ctx, &domain.NewEpochEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-epoch"},
		ContractAddress: "contract1",
		EpochIndex:      1,
		StartTime:       1000,
		EndTime:         2000,
		EpochDuration:   1000,
	})
	if err != nil {
		t.Fatalf("ApplyNewEpoch failed: %v", err)
	}

	err = f.ledger.ApplyTip(ctx, &domain.TipEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-tip"},
		ContractAddress: "contract1",
		NostrID:         "npub1",
		Amount:          decimal.New(10, 0),
		VoteScore:       decimal.New(3, 0),
	})
	if err != nil {
		t.Fatalf("ApplyTip failed: %v", err)
	}

	cs, err := f.contracts.Get(ctx, "contract1")
	if err != nil {
		t.Fatalf("contracts.Get failed: %v", err)
	}
	if !cs.TotalTip.Equal(decimal.New(10, 0)) {
		t.Errorf("contract TotalTip = %s, want 10", cs.TotalTip)
	}
	if !cs.TotalVoteScore.Equal(decimal.New(3, 0)) {
		t.Errorf("contract TotalVoteScore = %s, want 3", cs.TotalVoteScore)
	}

	es, err := f.epochs.Get(ctx, "contract1", 1)
	if err != nil {
		t.Fatalf("epochs.Get failed: %v", err)
	}
	if !es.TotalTip.Equal(decimal.New(10, 0)) {
		t.Errorf("epoch TotalTip = %s, want 10", es.TotalTip)
	}

	p, err := f.profiles.Get(ctx, "npub1")
	if err != nil {
		t.Fatalf("profiles.Get failed: %v", err)
	}
	if !p.TotalTip.Equal(decimal.New(10, 0)) {
		t.Errorf("profile TotalTip = %s, want 10", p.TotalTip)
	}

	ues, err := f.userEpochs.Get(ctx, "npub1", "contract1", 1)
	if err != nil {
		t.Fatalf("userEpochs.Get failed: %v", err)
	}
	if !ues.TotalVoteScore.Equal(decimal.New(3, 0)) {
		t.Errorf("user epoch TotalVoteScore = %s, want 3", ues.TotalVoteScore)
	}
}

func TestApplyDeposit_AnonymousSkipsUserLevels(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.ledger.ApplyDeposit(ctx, &domain.DepositEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-dep"},
		ContractAddress: "contract1",
		Amount:          decimal.New(500, 0),
	})
	if err != nil {
		t.Fatalf("ApplyDeposit failed: %v", err)
	}

	cs, err := f.contracts.Get(ctx, "contract1")
	if err != nil {
		t.Fatalf("contracts.Get failed: %v", err)
	}
	if !cs.TotalAmountDeposit.Equal(decimal.New(500, 0)) {
		t.Errorf("TotalAmountDeposit = %s, want 500", cs.TotalAmountDeposit)
	}
	// No identity attached: deposit does not feed the AI score.
	if !cs.TotalAiScore.IsZero() {
		t.Errorf("TotalAiScore = %s, want 0", cs.TotalAiScore)
	}
}

func TestApplyDeposit_WithIdentityFeedsAiScore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.ledger.ApplyDeposit(ctx, &domain.DepositEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-dep"},
		ContractAddress: "contract1",
		NostrID:         "npub1",
		Amount:          decimal.New(500, 0),
	})
	if err != nil {
		t.Fatalf("ApplyDeposit failed: %v", err)
	}

	p, err := f.profiles.Get(ctx, "npub1")
	if err != nil {
		t.Fatalf("profiles.Get failed: %v", err)
	}
	if !p.TotalAiScore.Equal(decimal.New(500, 0)) {
		t.Errorf("profile TotalAiScore = %s, want 500", p.TotalAiScore)
	}
	if !p.TotalAmountDeposit.Equal(decimal.New(500, 0)) {
		t.Errorf("profile TotalAmountDeposit = %s, want 500", p.TotalAmountDeposit)
	}
}

func TestApplyDistribution_RecordsClaim(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	epoch := uint64(1)
	err := f.ledger.ApplyDistribution(ctx, &domain.DistributionEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-dist"},
		ContractAddress: "contract1",
		NostrID:         "npub1",
		EpochIndex:      &epoch,
		AmountClaimed:   decimal.New(100, 0),
		AmountAlgo:      decimal.New(60, 0),
		AmountVote:      decimal.New(40, 0),
	})
	if err != nil {
		t.Fatalf("ApplyDistribution failed: %v", err)
	}

	es, err := f.epochs.Get(ctx, "contract1", 1)
	if err != nil {
		t.Fatalf("epochs.Get failed: %v", err)
	}
	if !es.AmountClaimed.Equal(decimal.New(100, 0)) {
		t.Errorf("AmountClaimed = %s, want 100", es.AmountClaimed)
	}
	if !es.AmountAlgo.Equal(decimal.New(60, 0)) {
		t.Errorf("AmountAlgo = %s, want 60", es.AmountAlgo)
	}
	if !es.AmountVote.Equal(decimal.New(40, 0)) {
		t.Errorf("AmountVote = %s, want 40", es.AmountVote)
	}

	cs, err := f.contracts.Get(ctx, "contract1")
	if err != nil {
		t.Fatalf("contracts.Get failed: %v", err)
	}
	if !cs.TotalAmountClaimed.Equal(decimal.New(100, 0)) {
		t.Errorf("contract TotalAmountClaimed = %s, want 100", cs.TotalAmountClaimed)
	}
}

func TestApplyNewEpoch_FirstObservedIndexBecomesCurrent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// The first epoch event a contract ever sees may carry any index.
	err := f.ledger.ApplyNewEpoch(ctx, &domain.NewEpochEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-epoch"},
		ContractAddress: "contract1",
		EpochIndex:      2,
		StartTime:       5000,
		EndTime:         6000,
		EpochDuration:   1000,
	})
	if err != nil {
		t.Fatalf("ApplyNewEpoch failed: %v", err)
	}

	cs, err := f.contracts.Get(ctx, "contract1")
	if err != nil {
		t.Fatalf("contracts.Get failed: %v", err)
	}
	if cs.CurrentEpochIndex != 2 {
		t.Errorf("CurrentEpochIndex = %d, want 2", cs.CurrentEpochIndex)
	}

	if _, err := f.epochs.Get(ctx, "contract1", 2); err != nil {
		t.Errorf("epoch 2 row missing: %v", err)
	}
}

func TestApplyNewEpoch_ReplayIsBenign(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	event := &domain.NewEpochEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-epoch"},
		ContractAddress: "contract1",
		EpochIndex:      1,
		StartTime:       1000,
		EndTime:         2000,
		EpochDuration:   1000,
	}
	if err := f.ledger.ApplyNewEpoch(ctx, event); err != nil {
		t.Fatalf("first ApplyNewEpoch failed: %v", err)
	}
	if err := f.ledger.ApplyNewEpoch(ctx, event); err != nil {
		t.Fatalf("replayed ApplyNewEpoch failed: %v", err)
	}
}

func TestApplyTip_AheadOfEpochAdvancesMachine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.ledger.ApplyNewEpoch(ctx, &domain.NewEpochEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-e1"},
		ContractAddress: "contract1",
		EpochIndex:      1,
	}); err != nil {
		t.Fatalf("ApplyNewEpoch failed: %v", err)
	}

	// Tip referencing epoch 3 before its NewEpoch arrives.
	epoch := uint64(3)
	err := f.ledger.ApplyTip(ctx, &domain.TipEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-tip", BlockTimestamp: 9000},
		ContractAddress: "contract1",
		NostrID:         "npub1",
		EpochIndex:      &epoch,
		Amount:          decimal.New(5, 0),
	})
	if err != nil {
		t.Fatalf("ApplyTip failed: %v", err)
	}

	cs, err := f.contracts.Get(ctx, "contract1")
	if err != nil {
		t.Fatalf("contracts.Get failed: %v", err)
	}
	if cs.CurrentEpochIndex != 3 {
		t.Errorf("CurrentEpochIndex = %d, want 3", cs.CurrentEpochIndex)
	}

	es, err := f.epochs.Get(ctx, "contract1", 3)
	if err != nil {
		t.Fatalf("epochs.Get failed: %v", err)
	}
	if !es.TotalTip.Equal(decimal.New(5, 0)) {
		t.Errorf("epoch 3 TotalTip = %s, want 5", es.TotalTip)
	}
}

func TestApplyTip_StaleEpochAppliesToItsOwnRow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.ledger.ApplyNewEpoch(ctx, &domain.NewEpochEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-e5"},
		ContractAddress: "contract1",
		EpochIndex:      5,
	}); err != nil {
		t.Fatalf("ApplyNewEpoch failed: %v", err)
	}

	epoch := uint64(2)
	err := f.ledger.ApplyTip(ctx, &domain.TipEvent{
		EventMeta:       domain.EventMeta{Network: "starknet", TransactionHash: "tx-tip"},
		ContractAddress: "contract1",
		NostrID:         "npub1",
		EpochIndex:      &epoch,
		Amount:          decimal.New(5, 0),
	})
	if err != nil {
		t.Fatalf("ApplyTip failed: %v", err)
	}

	cs, err := f.contracts.Get(ctx, "contract1")
	if err != nil {
		t.Fatalf("contracts.Get failed: %v", err)
	}
	if cs.CurrentEpochIndex != 5 {
		t.Errorf("CurrentEpochIndex = %d, want 5 (stale tip rewound pointer)", cs.CurrentEpochIndex)
	}

	es, err := f.epochs.Get(ctx, "contract1", 2)
	if err != nil {
		t.Fatalf("epochs.Get failed: %v", err)
	}
	if !es.TotalTip.Equal(decimal.New(5, 0)) {
		t.Errorf("epoch 2 TotalTip = %s, want 5", es.TotalTip)
	}
}
