package memory

import (
	"context"
	"sort"
	"sync"

	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/storage"
)

// BacktestTradeStore is an in-memory implementation of storage.BacktestTradeStore.
type BacktestTradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BacktestTrade // keyed by trade_id
}

// NewBacktestTradeStore creates a new in-memory backtest trade store.
func NewBacktestTradeStore() *BacktestTradeStore {
	return &BacktestTradeStore{
		data: make(map[string]*domain.BacktestTrade),
	}
}

var _ storage.BacktestTradeStore = (*BacktestTradeStore)(nil)

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *BacktestTradeStore) Insert(_ context.Context, t *domain.BacktestTrade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[t.TradeID] = &copy
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *BacktestTradeStore) InsertBulk(_ context.Context, trades []*domain.BacktestTrade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TradeID] = struct{}{}
	}

	for _, t := range trades {
		copy := *t
		s.data[t.TradeID] = &copy
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *BacktestTradeStore) GetByID(_ context.Context, tradeID string) (*domain.BacktestTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *t
	return &copy, nil
}

// GetByFilter retrieves trades matching the filter, ordered by trade_date ASC.
func (s *BacktestTradeStore) GetByFilter(_ context.Context, f storage.TradeFilter) ([]*domain.BacktestTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BacktestTrade
	for _, t := range s.data {
		if matchesTradeFilter(t, f) {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TradeDate != result[j].TradeDate {
			return result[i].TradeDate < result[j].TradeDate
		}
		return result[i].TradeID < result[j].TradeID
	})

	return result, nil
}

// DistinctSymbols retrieves the distinct symbols traded by a user, sorted ASC.
func (s *BacktestTradeStore) DistinctSymbols(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range s.data {
		if t.UserID == userID && t.Symbol != "" {
			seen[t.Symbol] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	return symbols, nil
}

func matchesTradeFilter(t *domain.BacktestTrade, f storage.TradeFilter) bool {
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	if f.StrategyID != "" && t.StrategyID != f.StrategyID {
		return false
	}
	if f.Symbol != "" && t.Symbol != f.Symbol {
		return false
	}
	if f.Session != "" && t.Session != f.Session {
		return false
	}
	if f.Timeframe != "" && t.Timeframe != f.Timeframe {
		return false
	}
	if f.Outcome != "" && t.Outcome != f.Outcome {
		return false
	}
	if f.From != 0 && t.TradeDate < f.From {
		return false
	}
	if f.To != 0 && t.TradeDate > f.To {
		return false
	}
	return true
}
