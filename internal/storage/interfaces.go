package storage

import (
	"context"

	"tradetaper-analytics/internal/domain"
)

// TradeFilter narrows a backtest trade query. Zero-value fields are
// ignored; From/To bound TradeDate inclusively when non-zero (ms, UTC).
type TradeFilter struct {
	UserID     string
	StrategyID string
	Symbol     string
	Session    string
	Timeframe  string
	Outcome    string
	From       int64
	To         int64
}

// LogFilter narrows a market log query. Tag matches any normalized tag by
// substring; other zero-value fields are ignored.
type LogFilter struct {
	UserID    string
	Symbol    string
	Session   string
	Timeframe string
	Sentiment string
	Tag       string
	From      int64
	To        int64
}

// BacktestTradeStore provides access to backtest trade storage.
type BacktestTradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.BacktestTrade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.BacktestTrade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.BacktestTrade, error)

	// GetByFilter retrieves trades matching the filter, ordered by trade_date ASC.
	GetByFilter(ctx context.Context, f TradeFilter) ([]*domain.BacktestTrade, error)

	// DistinctSymbols retrieves the distinct symbols traded by a user, sorted ASC.
	DistinctSymbols(ctx context.Context, userID string) ([]string, error)
}

// MarketLogStore provides access to market observation log storage.
type MarketLogStore interface {
	// Insert adds a new log. Returns ErrDuplicateKey if log_id exists.
	Insert(ctx context.Context, l *domain.MarketLog) error

	// Update replaces an existing log. Returns ErrNotFound if not exists.
	Update(ctx context.Context, l *domain.MarketLog) error

	// Delete removes a log. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, logID string) error

	// GetByID retrieves a log by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, logID string) (*domain.MarketLog, error)

	// GetByFilter retrieves logs matching the filter, ordered by log_date ASC.
	GetByFilter(ctx context.Context, f LogFilter) ([]*domain.MarketLog, error)
}

// CandleStore provides access to cached price candle storage.
type CandleStore interface {
	// UpsertBulk stores candles, replacing rows with the same
	// (symbol, timeframe, timestamp) key. Idempotent.
	UpsertBulk(ctx context.Context, candles []*domain.MarketCandle) error

	// GetRange retrieves candles for (symbol, timeframe) with timestamp in
	// [start, end] (inclusive, ms), ordered by timestamp ASC.
	GetRange(ctx context.Context, symbol, timeframe string, start, end int64) ([]*domain.MarketCandle, error)

	// DeleteOlderThan removes candles with timestamp before cutoff (ms)
	// and returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
