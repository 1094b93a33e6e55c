package analytics

import (
	"context"

	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/patterns"
	"tradetaper-analytics/internal/storage"
)

// Facade orchestrates the analytics computations for controller-facing
// operations. It is stateless between calls and safe for concurrent use;
// every query re-fetches and recomputes.
type Facade struct {
	trades storage.BacktestTradeStore
	logs   storage.MarketLogStore
	cfg    RecommendationConfig
}

// NewFacade creates an analytics facade over a trade store and a market
// log store.
func NewFacade(trades storage.BacktestTradeStore, logs storage.MarketLogStore, cfg RecommendationConfig) *Facade {
	return &Facade{trades: trades, logs: logs, cfg: cfg}
}

// OverallStats computes aggregate performance over every backtest trade a
// user has recorded. An empty trade set yields all-zero stats.
func (f *Facade) OverallStats(ctx context.Context, userID string) (*domain.BacktestStats, error) {
	trades, err := f.trades.GetByFilter(ctx, storage.TradeFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	return Calculate(trades), nil
}

// StrategyStats computes aggregate performance for one strategy.
func (f *Facade) StrategyStats(ctx context.Context, strategyID, userID string) (*domain.BacktestStats, error) {
	trades, err := f.fetchStrategy(ctx, strategyID, userID)
	if err != nil {
		return nil, err
	}
	return Calculate(trades), nil
}

// StatsByDimension computes the per-value breakdown of one dimension for
// a strategy. Returns storage.ErrInvalidInput for a dimension outside the
// closed set.
func (f *Facade) StatsByDimension(ctx context.Context, strategyID, userID string, dim domain.Dimension) ([]domain.DimensionStats, error) {
	if !domain.ValidDimension(dim) {
		return nil, storage.ErrInvalidInput
	}
	trades, err := f.fetchStrategy(ctx, strategyID, userID)
	if err != nil {
		return nil, err
	}
	return ByDimension(trades, dim, f.cfg), nil
}

// PerformanceMatrix cross-tabulates two dimensions for a strategy.
func (f *Facade) PerformanceMatrix(ctx context.Context, strategyID, userID string, rowDim, colDim domain.Dimension) (*domain.PerformanceMatrix, error) {
	if !domain.ValidDimension(rowDim) || !domain.ValidDimension(colDim) {
		return nil, storage.ErrInvalidInput
	}
	trades, err := f.fetchStrategy(ctx, strategyID, userID)
	if err != nil {
		return nil, err
	}
	return Matrix(trades, rowDim, colDim), nil
}

// AnalysisData assembles the full analysis bundle for a strategy: overall
// stats, all six dimension breakdowns, the best and worst qualifying
// condition per dimension, trade count and date range.
func (f *Facade) AnalysisData(ctx context.Context, strategyID, userID string) (*domain.AnalysisBundle, error) {
	trades, err := f.fetchStrategy(ctx, strategyID, userID)
	if err != nil {
		return nil, err
	}

	bundle := &domain.AnalysisBundle{
		Overall:    Calculate(trades),
		Dimensions: make(map[domain.Dimension][]domain.DimensionStats, len(domain.AllDimensions)),
		Best:       make(map[domain.Dimension]*domain.DimensionStats),
		Worst:      make(map[domain.Dimension]*domain.DimensionStats),
		TradeCount: len(trades),
		DateRange:  dateRange(trades),
	}

	for _, dim := range domain.AllDimensions {
		breakdown := ByDimension(trades, dim, f.cfg)
		bundle.Dimensions[dim] = breakdown

		best, worst := bestWorst(breakdown, f.cfg.MinTrades)
		if best != nil {
			bundle.Best[dim] = best
		}
		if worst != nil {
			bundle.Worst[dim] = worst
		}
	}

	return bundle, nil
}

// AnalyzePatterns runs tag pattern discovery over every market log the
// user has recorded.
func (f *Facade) AnalyzePatterns(ctx context.Context, userID string) (*domain.PatternAnalysis, error) {
	logs, err := f.logs.GetByFilter(ctx, storage.LogFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	return patterns.Analyze(logs), nil
}

// DistinctSymbols lists the symbols a user has traded.
func (f *Facade) DistinctSymbols(ctx context.Context, userID string) ([]string, error) {
	return f.trades.DistinctSymbols(ctx, userID)
}

func (f *Facade) fetchStrategy(ctx context.Context, strategyID, userID string) ([]*domain.BacktestTrade, error) {
	return f.trades.GetByFilter(ctx, storage.TradeFilter{
		UserID:     userID,
		StrategyID: strategyID,
	})
}

// bestWorst picks the highest and lowest win-rate groups that cleared the
// sample floor. The breakdown is already sorted descending by win rate.
func bestWorst(breakdown []domain.DimensionStats, minTrades int) (best, worst *domain.DimensionStats) {
	for i := range breakdown {
		if breakdown[i].Stats.TotalTrades < minTrades {
			continue
		}
		if best == nil {
			b := breakdown[i]
			best = &b
		}
		w := breakdown[i]
		worst = &w
	}
	return best, worst
}

// dateRange bounds the trade dates, nil for an empty set.
func dateRange(trades []*domain.BacktestTrade) *domain.DateRange {
	if len(trades) == 0 {
		return nil
	}
	r := &domain.DateRange{Start: trades[0].TradeDate, End: trades[0].TradeDate}
	for _, t := range trades[1:] {
		if t.TradeDate < r.Start {
			r.Start = t.TradeDate
		}
		if t.TradeDate > r.End {
			r.End = t.TradeDate
		}
	}
	return r
}
