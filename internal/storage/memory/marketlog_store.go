package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/storage"
)

// MarketLogStore is an in-memory implementation of storage.MarketLogStore.
type MarketLogStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MarketLog // keyed by log_id
}

// NewMarketLogStore creates a new in-memory market log store.
func NewMarketLogStore() *MarketLogStore {
	return &MarketLogStore{
		data: make(map[string]*domain.MarketLog),
	}
}

var _ storage.MarketLogStore = (*MarketLogStore)(nil)

// Insert adds a new market log. Returns ErrDuplicateKey if log_id exists.
func (s *MarketLogStore) Insert(_ context.Context, l *domain.MarketLog) error {
	if l == nil || l.LogID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[l.LogID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[l.LogID] = copyLog(l)
	return nil
}

// Update replaces an existing market log. Returns ErrNotFound if not exists.
func (s *MarketLogStore) Update(_ context.Context, l *domain.MarketLog) error {
	if l == nil || l.LogID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[l.LogID]; !exists {
		return storage.ErrNotFound
	}

	s.data[l.LogID] = copyLog(l)
	return nil
}

// Delete removes a market log. Returns ErrNotFound if not exists.
func (s *MarketLogStore) Delete(_ context.Context, logID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[logID]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, logID)
	return nil
}

// GetByID retrieves a market log by its ID. Returns ErrNotFound if not exists.
func (s *MarketLogStore) GetByID(_ context.Context, logID string) (*domain.MarketLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, exists := s.data[logID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyLog(l), nil
}

// GetByFilter retrieves market logs matching the filter, ordered by log_date ASC.
func (s *MarketLogStore) GetByFilter(_ context.Context, f storage.LogFilter) ([]*domain.MarketLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketLog
	for _, l := range s.data {
		if matchesLogFilter(l, f) {
			result = append(result, copyLog(l))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LogDate != result[j].LogDate {
			return result[i].LogDate < result[j].LogDate
		}
		return result[i].LogID < result[j].LogID
	})

	return result, nil
}

func copyLog(l *domain.MarketLog) *domain.MarketLog {
	copy := *l
	if l.Tags != nil {
		copy.Tags = append([]string(nil), l.Tags...)
	}
	return &copy
}

func matchesLogFilter(l *domain.MarketLog, f storage.LogFilter) bool {
	if f.UserID != "" && l.UserID != f.UserID {
		return false
	}
	if f.Symbol != "" && l.Symbol != f.Symbol {
		return false
	}
	if f.Timeframe != "" && l.Timeframe != f.Timeframe {
		return false
	}
	if f.Session != "" && l.Session != f.Session {
		return false
	}
	if f.Sentiment != "" && l.Sentiment != f.Sentiment {
		return false
	}
	if f.From != 0 && l.LogDate < f.From {
		return false
	}
	if f.To != 0 && l.LogDate > f.To {
		return false
	}
	if f.Tag != "" {
		found := false
		needle := strings.ToLower(f.Tag)
		for _, tag := range l.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
