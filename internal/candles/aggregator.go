package candles

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/storage"
)

// Aggregator rebuilds the candle series of a token from its full transaction
// history. Rebuilds for the same token are serialized and coalesced: a
// request arriving while a rebuild runs marks it dirty and the runner goes
// one more round, so no trade is ever missed and no duplicate work piles up.
type Aggregator struct {
	transactions storage.TokenTransactionStore
	candlesticks storage.CandlestickStore
	logger       *zap.Logger

	mu      sync.Mutex
	running map[string]bool
	dirty   map[string]bool
}

// NewAggregator creates an Aggregator over the given stores.
func NewAggregator(transactions storage.TokenTransactionStore, candlesticks storage.CandlestickStore, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		transactions: transactions,
		candlesticks: candlesticks,
		logger:       logger.Named("candles"),
		running:      make(map[string]bool),
		dirty:        make(map[string]bool),
	}
}

// Trigger requests an async rebuild for a token. Fire-and-forget: failures
// are logged, not returned; the periodic sweep catches anything lost.
func (a *Aggregator) Trigger(ctx context.Context, token string) {
	a.mu.Lock()
	if a.running[token] {
		a.dirty[token] = true
		a.mu.Unlock()
		return
	}
	a.running[token] = true
	a.mu.Unlock()

	go a.run(ctx, token)
}

// run rebuilds until no dirty flag remains for the token.
func (a *Aggregator) run(ctx context.Context, token string) {
	for {
		if err := a.rebuild(ctx, token); err != nil {
			a.logger.Error("candle rebuild failed",
				zap.String("token_address", token), zap.Error(err))
		}

		a.mu.Lock()
		if a.dirty[token] {
			delete(a.dirty, token)
			a.mu.Unlock()
			continue
		}
		delete(a.running, token)
		a.mu.Unlock()
		return
	}
}

// Rebuild synchronously rebuilds all intervals for a token.
func (a *Aggregator) Rebuild(ctx context.Context, token string) error {
	a.mu.Lock()
	if a.running[token] {
		// A runner is active; leave the work to it.
		a.dirty[token] = true
		a.mu.Unlock()
		return nil
	}
	a.running[token] = true
	a.mu.Unlock()

	err := a.rebuild(ctx, token)

	a.mu.Lock()
	delete(a.running, token)
	rerun := a.dirty[token]
	delete(a.dirty, token)
	a.mu.Unlock()

	if rerun {
		a.Trigger(ctx, token)
	}
	return err
}

// rebuild recomputes every interval from the full ordered history. Failures
// on one interval do not stop the others.
func (a *Aggregator) rebuild(ctx context.Context, token string) error {
	start := time.Now()

	txs, err := a.transactions.GetByMemecoinAddress(ctx, token)
	if err != nil {
		observability.RecordCandleRebuild("error", time.Since(start).Seconds())
		return fmt.Errorf("load transactions for %s: %w", token, err)
	}
	if len(txs) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	var errs []error
	for _, interval := range domain.CandleIntervals {
		candles := BuildCandles(token, txs, interval, now)
		if len(candles) == 0 {
			continue
		}
		if err := a.candlesticks.UpsertBulk(ctx, candles); err != nil {
			// The batch failed as a unit; retry candle by candle so one
			// bad row does not take its siblings down with it.
			errs = append(errs, a.upsertEach(ctx, token, candles)...)
		}
	}

	status := "success"
	if len(errs) > 0 {
		status = "error"
	}
	observability.RecordCandleRebuild(status, time.Since(start).Seconds())
	return errors.Join(errs...)
}

// upsertEach writes candles one at a time, collecting and logging the
// failures so the rest of the series still lands.
func (a *Aggregator) upsertEach(ctx context.Context, token string, candles []*domain.Candlestick) []error {
	var errs []error
	for _, c := range candles {
		if err := a.candlesticks.UpsertBulk(ctx, []*domain.Candlestick{c}); err != nil {
			a.logger.Warn("candle upsert failed",
				zap.String("token_address", token),
				zap.Int("interval_minutes", c.IntervalMinutes),
				zap.Int64("timestamp", c.Timestamp),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("upsert %dm candle %d for %s: %w",
				c.IntervalMinutes, c.Timestamp, token, err))
		}
	}
	return errs
}

// RebuildActive rebuilds every token traded at or after sinceMs. Used by the
// periodic sweep to catch triggers lost to a crash.
func (a *Aggregator) RebuildActive(ctx context.Context, sinceMs int64) error {
	tokens, err := a.transactions.ListActiveTokens(ctx, sinceMs)
	if err != nil {
		return fmt.Errorf("list active tokens: %w", err)
	}

	var errs []error
	for _, token := range tokens {
		if err := a.Rebuild(ctx, token); err != nil {
			errs = append(errs, err)
		}
	}
	if len(tokens) > 0 {
		a.logger.Debug("sweep rebuilt candles", zap.Int("tokens", len(tokens)))
	}
	return errors.Join(errs...)
}
