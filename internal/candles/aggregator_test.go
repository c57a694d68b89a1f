package candles

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage/memory"
)

// flakyCandlestickStore refuses multi-candle batches and any write for one
// poisoned bucket, so the per-candle fallback path gets exercised.
type flakyCandlestickStore struct {
	*memory.CandlestickStore
	rejectBucket int64
}

func (s *flakyCandlestickStore) UpsertBulk(ctx context.Context, candles []*domain.Candlestick) error {
	if len(candles) > 1 {
		return errors.New("batch write refused")
	}
	if candles[0].Timestamp == s.rejectBucket {
		return errors.New("row write refused")
	}
	return s.CandlestickStore.UpsertBulk(ctx, candles)
}

func TestAggregator_RebuildProducesAllIntervals(t *testing.T) {
	transactions := memory.NewTokenTransactionStore(nil, nil)
	candlesticks := memory.NewCandlestickStore()
	agg := NewAggregator(transactions, candlesticks, zap.NewNop())
	ctx := context.Background()

	base := int64(1704067200000)
	price := decimal.New(2, 0)
	for i, id := range []string{"tr1", "tr2"} {
		err := transactions.InsertWithEconomics(ctx, &domain.TokenTransaction{
			TransferID:      id,
			MemecoinAddress: "token1",
			Price:           &price,
			Timestamp:       base + int64(i)*60_000,
		}, nil, nil)
		if err != nil {
			t.Fatalf("insert %s failed: %v", id, err)
		}
	}

	if err := agg.Rebuild(ctx, "token1"); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	for _, interval := range domain.CandleIntervals {
		candles, err := candlesticks.GetByToken(ctx, "token1", interval)
		if err != nil {
			t.Fatalf("GetByToken(%d) failed: %v", interval, err)
		}
		if len(candles) != 1 {
			t.Errorf("interval %d: candle count = %d, want 1", interval, len(candles))
		}
	}
}

func TestAggregator_RebuildIsIdempotent(t *testing.T) {
	transactions := memory.NewTokenTransactionStore(nil, nil)
	candlesticks := memory.NewCandlestickStore()
	agg := NewAggregator(transactions, candlesticks, zap.NewNop())
	ctx := context.Background()

	price := decimal.New(3, 0)
	err := transactions.InsertWithEconomics(ctx, &domain.TokenTransaction{
		TransferID:      "tr1",
		MemecoinAddress: "token1",
		Price:           &price,
		Timestamp:       1704067200000,
	}, nil, nil)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := agg.Rebuild(ctx, "token1"); err != nil {
		t.Fatalf("first Rebuild failed: %v", err)
	}
	if err := agg.Rebuild(ctx, "token1"); err != nil {
		t.Fatalf("second Rebuild failed: %v", err)
	}

	candles, err := candlesticks.GetByToken(ctx, "token1", domain.CandleInterval5Min)
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("candle count = %d, want 1", len(candles))
	}
	if !candles[0].Open.Equal(price) {
		t.Errorf("Open = %s, want 3", candles[0].Open)
	}
}

func TestAggregator_RebuildSalvagesSiblingsWhenBatchFails(t *testing.T) {
	base := int64(1704067200000)
	transactions := memory.NewTokenTransactionStore(nil, nil)
	candlesticks := &flakyCandlestickStore{
		CandlestickStore: memory.NewCandlestickStore(),
		rejectBucket:     base,
	}
	agg := NewAggregator(transactions, candlesticks, zap.NewNop())
	ctx := context.Background()

	price := decimal.New(2, 0)
	for i, id := range []string{"tr1", "tr2"} {
		err := transactions.InsertWithEconomics(ctx, &domain.TokenTransaction{
			TransferID:      id,
			MemecoinAddress: "token1",
			Price:           &price,
			Timestamp:       base + int64(i)*600_000,
		}, nil, nil)
		if err != nil {
			t.Fatalf("insert %s failed: %v", id, err)
		}
	}

	err := agg.Rebuild(ctx, "token1")
	if err == nil {
		t.Fatal("Rebuild did not report the rejected candle")
	}

	// The 5m and 10m series each span two buckets; the batch write is
	// refused, the fallback writes them one by one, and only the poisoned
	// bucket is lost.
	for _, interval := range []int{domain.CandleInterval5Min, domain.CandleInterval10Min} {
		candles, getErr := candlesticks.GetByToken(ctx, "token1", interval)
		if getErr != nil {
			t.Fatalf("GetByToken(%d) failed: %v", interval, getErr)
		}
		if len(candles) != 1 {
			t.Fatalf("interval %d: candle count = %d, want 1", interval, len(candles))
		}
		if candles[0].Timestamp != base+600_000 {
			t.Errorf("interval %d: surviving bucket = %d, want %d", interval, candles[0].Timestamp, base+600_000)
		}
	}
}

func TestAggregator_RebuildActiveSweepsTradedTokens(t *testing.T) {
	transactions := memory.NewTokenTransactionStore(nil, nil)
	candlesticks := memory.NewCandlestickStore()
	agg := NewAggregator(transactions, candlesticks, zap.NewNop())
	ctx := context.Background()

	price := decimal.New(1, 0)
	for _, tx := range []*domain.TokenTransaction{
		{TransferID: "a", MemecoinAddress: "token1", Price: &price, Timestamp: 1704067200000},
		{TransferID: "b", MemecoinAddress: "token2", Price: &price, Timestamp: 1704067260000},
	} {
		if err := transactions.InsertWithEconomics(ctx, tx, nil, nil); err != nil {
			t.Fatalf("insert %s failed: %v", tx.TransferID, err)
		}
	}

	if err := agg.RebuildActive(ctx, 0); err != nil {
		t.Fatalf("RebuildActive failed: %v", err)
	}

	for _, token := range []string{"token1", "token2"} {
		candles, err := candlesticks.GetByToken(ctx, token, 0)
		if err != nil {
			t.Fatalf("GetByToken(%s) failed: %v", token, err)
		}
		if len(candles) == 0 {
			t.Errorf("%s: no candles after sweep", token)
		}
	}
}
