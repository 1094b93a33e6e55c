package memory

import (
	"context"
	"sort"
	"sync"

	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/storage"
)

type candleKey struct {
	symbol    string
	timeframe string
	timestamp int64
}

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[candleKey]*domain.MarketCandle
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[candleKey]*domain.MarketCandle),
	}
}

var _ storage.CandleStore = (*CandleStore)(nil)

// UpsertBulk inserts or replaces candles keyed by (symbol, timeframe, timestamp).
func (s *CandleStore) UpsertBulk(_ context.Context, candles []*domain.MarketCandle) error {
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range candles {
		if c == nil || c.Symbol == "" || c.Timeframe == "" {
			return storage.ErrInvalidInput
		}
		key := candleKey{symbol: c.Symbol, timeframe: c.Timeframe, timestamp: c.Timestamp}
		copy := *c
		if c.Volume != nil {
			v := *c.Volume
			copy.Volume = &v
		}
		s.data[key] = &copy
	}

	return nil
}

// GetRange retrieves candles in [start, end] inclusive, ordered by timestamp ASC.
func (s *CandleStore) GetRange(_ context.Context, symbol, timeframe string, start, end int64) ([]*domain.MarketCandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketCandle
	for key, c := range s.data {
		if key.symbol != symbol || key.timeframe != timeframe {
			continue
		}
		if key.timestamp < start || key.timestamp > end {
			continue
		}
		copy := *c
		if c.Volume != nil {
			v := *c.Volume
			copy.Volume = &v
		}
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

// DeleteOlderThan removes candles with timestamp before cutoff. Returns the count removed.
func (s *CandleStore) DeleteOlderThan(_ context.Context, cutoff int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key := range s.data {
		if key.timestamp < cutoff {
			delete(s.data, key)
			removed++
		}
	}

	return removed, nil
}
