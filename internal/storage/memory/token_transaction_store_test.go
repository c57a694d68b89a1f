package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

func seedLaunch(t *testing.T, launches *TokenLaunchStore, token string) {
	t.Helper()
	err := launches.Upsert(context.Background(), &domain.TokenLaunch{
		TransactionHash:      "launch-tx",
		MemecoinAddress:      token,
		TotalSupply:          decimal.New(1_000_000, 0),
		CurrentSupply:        decimal.New(1_000_000, 0),
		InitialPoolSupplyDEX: decimal.New(100_000, 0),
	})
	if err != nil {
		t.Fatalf("Upsert launch failed: %v", err)
	}
}

func TestTokenTransactionStore_InsertAppliesEconomicsAndPosition(t *testing.T) {
	launches := NewTokenLaunchStore()
	shareholders := NewShareholderStore()
	store := NewTokenTransactionStore(launches, shareholders)
	ctx := context.Background()

	seedLaunch(t, launches, "token1")

	tx := &domain.TokenTransaction{
		TransferID:      "tr1",
		MemecoinAddress: "token1",
		OwnerAddress:    "owner1",
		Amount:          decimal.New(50, 0),
		QuoteAmount:     decimal.New(100, 0),
		TransactionType: domain.TransactionTypeBuy,
		Timestamp:       1704067200000,
	}
	econ := &domain.LaunchEconomics{
		MemecoinAddress:  "token1",
		CurrentSupply:    decimal.New(999_950, 0),
		LiquidityRaised:  decimal.New(100, 0),
		TotalTokenHolded: decimal.New(50, 0),
		Price:            decimal.New(1, -3),
		MarketCap:        decimal.New(1000, 0),
	}
	pos := &domain.ShareholderPosition{
		OwnerTokenID:    domain.OwnerTokenID("owner1", "token1"),
		OwnerAddress:    "owner1",
		MemecoinAddress: "token1",
		AmountOwned:     decimal.New(50, 0),
		AmountBuy:       decimal.New(50, 0),
		TotalPaid:       decimal.New(100, 0),
	}

	if err := store.InsertWithEconomics(ctx, tx, econ, pos); err != nil {
		t.Fatalf("InsertWithEconomics failed: %v", err)
	}

	launch, err := launches.GetByMemecoinAddress(ctx, "token1")
	if err != nil {
		t.Fatalf("GetByMemecoinAddress failed: %v", err)
	}
	if !launch.LiquidityRaised.Equal(decimal.New(100, 0)) {
		t.Errorf("LiquidityRaised = %s, want 100", launch.LiquidityRaised)
	}
	if !launch.CurrentSupply.Equal(decimal.New(999_950, 0)) {
		t.Errorf("CurrentSupply = %s, want 999950", launch.CurrentSupply)
	}

	got, err := shareholders.GetByOwnerToken(ctx, "owner1", "token1")
	if err != nil {
		t.Fatalf("GetByOwnerToken failed: %v", err)
	}
	if !got.AmountOwned.Equal(decimal.New(50, 0)) {
		t.Errorf("AmountOwned = %s, want 50", got.AmountOwned)
	}
}

func TestTokenTransactionStore_DuplicateTransferIDWritesNothing(t *testing.T) {
	launches := NewTokenLaunchStore()
	shareholders := NewShareholderStore()
	store := NewTokenTransactionStore(launches, shareholders)
	ctx := context.Background()

	seedLaunch(t, launches, "token1")

	tx := &domain.TokenTransaction{
		TransferID:      "tr1",
		MemecoinAddress: "token1",
		OwnerAddress:    "owner1",
		Amount:          decimal.New(50, 0),
		QuoteAmount:     decimal.New(100, 0),
		TransactionType: domain.TransactionTypeBuy,
	}
	econ := &domain.LaunchEconomics{
		MemecoinAddress: "token1",
		LiquidityRaised: decimal.New(100, 0),
	}

	if err := store.InsertWithEconomics(ctx, tx, econ, nil); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	// Redelivery: same transfer_id with doubled economics must not apply.
	econ2 := &domain.LaunchEconomics{
		MemecoinAddress: "token1",
		LiquidityRaised: decimal.New(200, 0),
	}
	err := store.InsertWithEconomics(ctx, tx, econ2, nil)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("second insert error = %v, want ErrDuplicateKey", err)
	}

	launch, err := launches.GetByMemecoinAddress(ctx, "token1")
	if err != nil {
		t.Fatalf("GetByMemecoinAddress failed: %v", err)
	}
	if !launch.LiquidityRaised.Equal(decimal.New(100, 0)) {
		t.Errorf("LiquidityRaised = %s, want 100 (redelivery applied)", launch.LiquidityRaised)
	}

	txs, err := store.GetByMemecoinAddress(ctx, "token1")
	if err != nil {
		t.Fatalf("GetByMemecoinAddress failed: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("transaction count = %d, want 1", len(txs))
	}
}

func TestTokenTransactionStore_ListActiveTokens(t *testing.T) {
	store := NewTokenTransactionStore(nil, nil)
	ctx := context.Background()

	for _, tx := range []*domain.TokenTransaction{
		{TransferID: "a", MemecoinAddress: "token1", Timestamp: 100},
		{TransferID: "b", MemecoinAddress: "token2", Timestamp: 200},
		{TransferID: "c", MemecoinAddress: "token1", Timestamp: 300},
	} {
		if err := store.InsertWithEconomics(ctx, tx, nil, nil); err != nil {
			t.Fatalf("insert %s failed: %v", tx.TransferID, err)
		}
	}

	tokens, err := store.ListActiveTokens(ctx, 200)
	if err != nil {
		t.Fatalf("ListActiveTokens failed: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("active token count = %d, want 2", len(tokens))
	}
	if tokens[0] != "token1" || tokens[1] != "token2" {
		t.Errorf("tokens = %v, want [token1 token2]", tokens)
	}
}
