package analytics

import (
	"sort"

	"tradetaper-analytics/internal/domain"
)

// RecommendationConfig holds the hand-tuned thresholds behind dimension
// recommendations. They have no documented derivation; keeping them as
// configuration eases recalibration.
type RecommendationConfig struct {
	// MinTrades is the sample floor below which a group is MORE_DATA
	// regardless of performance.
	MinTrades int

	// TradeWinRate and TradeProfitFactor must BOTH hold for TRADE.
	TradeWinRate      float64
	TradeProfitFactor float64

	// CautionWinRate or CautionProfitFactor (either) yields CAUTION.
	CautionWinRate      float64
	CautionProfitFactor float64
}

// DefaultRecommendationConfig returns the standard thresholds.
func DefaultRecommendationConfig() RecommendationConfig {
	return RecommendationConfig{
		MinTrades:           10,
		TradeWinRate:        60,
		TradeProfitFactor:   1.5,
		CautionWinRate:      50,
		CautionProfitFactor: 1.0,
	}
}

// classify maps a group's stats to a recommendation label.
func (c RecommendationConfig) classify(stats *domain.BacktestStats) string {
	if stats.TotalTrades < c.MinTrades {
		return domain.RecommendationMoreData
	}
	if stats.WinRate >= c.TradeWinRate && stats.ProfitFactor >= c.TradeProfitFactor {
		return domain.RecommendationTrade
	}
	if stats.WinRate >= c.CautionWinRate || stats.ProfitFactor >= c.CautionProfitFactor {
		return domain.RecommendationCaution
	}
	return domain.RecommendationAvoid
}

// ByDimension groups trades by one dimension, computes stats per group and
// attaches a recommendation. Missing field values group under "unknown".
// The result is sorted descending by win rate; because groups are walked
// in lexical value order, win-rate ties resolve lexically rather than by
// trade encounter order. Output never depends on map iteration.
func ByDimension(trades []*domain.BacktestTrade, dim domain.Dimension, cfg RecommendationConfig) []domain.DimensionStats {
	groups := groupByDimension(trades, dim)

	// Lexical over observed values for deterministic output.
	values := make([]string, 0, len(groups))
	for v := range groups {
		values = append(values, v)
	}
	sort.Strings(values)

	result := make([]domain.DimensionStats, 0, len(values))
	for _, v := range values {
		stats := Calculate(groups[v])
		result = append(result, domain.DimensionStats{
			Dimension:      dim,
			Value:          v,
			Stats:          stats,
			Recommendation: cfg.classify(stats),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Stats.WinRate > result[j].Stats.WinRate
	})

	return result
}

// groupByDimension buckets trades by their "unknown"-substituted value
// for the dimension. Grouping is explicit and in-memory; nothing here
// leans on storage semantics.
func groupByDimension(trades []*domain.BacktestTrade, dim domain.Dimension) map[string][]*domain.BacktestTrade {
	groups := make(map[string][]*domain.BacktestTrade)
	for _, t := range trades {
		v := domain.DimensionValue(t, dim)
		groups[v] = append(groups[v], t)
	}
	return groups
}
