package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// CandlestickStore is an in-memory implementation of storage.CandlestickStore.
type CandlestickStore struct {
	mu    sync.RWMutex
	byKey map[candleKey]*domain.Candlestick
}

type candleKey struct {
	token     string
	interval  int
	timestamp int64
}

// NewCandlestickStore creates a new in-memory candlestick store.
func NewCandlestickStore() *CandlestickStore {
	return &CandlestickStore{
		byKey: make(map[candleKey]*domain.Candlestick),
	}
}

var _ storage.CandlestickStore = (*CandlestickStore)(nil)

// UpsertBulk writes candles keyed by (token, interval, bucket).
func (s *CandlestickStore) UpsertBulk(_ context.Context, candles []*domain.Candlestick) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range candles {
		candleCopy := *c
		s.byKey[candleKey{c.TokenAddress, c.IntervalMinutes, c.Timestamp}] = &candleCopy
	}
	return nil
}

// GetByToken retrieves candles for a token ordered by timestamp ASC.
// intervalMinutes of 0 returns all intervals.
func (s *CandlestickStore) GetByToken(_ context.Context, token string, intervalMinutes int) ([]*domain.Candlestick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candles []*domain.Candlestick
	for k, c := range s.byKey {
		if k.token != token {
			continue
		}
		if intervalMinutes > 0 && k.interval != intervalMinutes {
			continue
		}
		candleCopy := *c
		candles = append(candles, &candleCopy)
	}
	sort.Slice(candles, func(i, j int) bool {
		if candles[i].IntervalMinutes != candles[j].IntervalMinutes {
			return candles[i].IntervalMinutes < candles[j].IntervalMinutes
		}
		return candles[i].Timestamp < candles[j].Timestamp
	})
	return candles, nil
}
