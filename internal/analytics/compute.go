package analytics

import (
	"math"
	"sort"

	"tradetaper-analytics/internal/domain"
)

// Calculate computes the full performance summary for a set of backtest
// trades. An empty input is a defined terminal case: every field of the
// result is zero and no division takes place.
//
// Trades are sorted by TradeDate ASC (stable, ties keep input order)
// before computing order-dependent streaks.
func Calculate(trades []*domain.BacktestTrade) *domain.BacktestStats {
	n := len(trades)
	if n == 0 {
		return &domain.BacktestStats{}
	}

	wins := 0
	losses := 0
	breakevens := 0

	totalPnl := 0.0
	totalPips := 0.0
	winPnlSum := 0.0
	lossPnlSum := 0.0 // negative or zero

	for _, t := range trades {
		switch t.Outcome {
		case domain.OutcomeWin:
			wins++
			if t.PnlDollars != nil {
				winPnlSum += *t.PnlDollars
			}
		case domain.OutcomeLoss:
			losses++
			if t.PnlDollars != nil {
				lossPnlSum += *t.PnlDollars
			}
		default:
			breakevens++
		}

		// Absent pnl counts as 0 toward totals; the trade still counts
		// toward TotalTrades.
		if t.PnlDollars != nil {
			totalPnl += *t.PnlDollars
		}
		if t.PnlPips != nil {
			totalPips += *t.PnlPips
		}
	}

	stats := &domain.BacktestStats{
		TotalTrades:     n,
		Wins:            wins,
		Losses:          losses,
		Breakevens:      breakevens,
		TotalPnlDollars: totalPnl,
		TotalPnlPips:    totalPips,
	}

	avgWin := 0.0
	if wins > 0 {
		avgWin = winPnlSum / float64(wins)
	}
	avgLoss := 0.0
	if losses > 0 {
		avgLoss = math.Abs(lossPnlSum) / float64(losses)
	}

	winRate := float64(wins) / float64(n) * 100
	lossRate := float64(losses) / float64(n)

	stats.WinRate = round2(winRate)
	stats.AverageWin = round2(avgWin)
	stats.AverageLoss = round2(avgLoss)
	stats.ProfitFactor = round2(computeProfitFactor(winPnlSum, lossPnlSum))
	// Expectancy uses unrounded intermediates; rounding happens only here
	// at the boundary to avoid compounding error.
	stats.Expectancy = round2(winRate/100*avgWin - lossRate*avgLoss)

	stats.AverageRMultiple = round2(meanFloat(trades, func(t *domain.BacktestTrade) *float64 {
		return t.RMultiple
	}))
	stats.AverageHoldingMinutes = round2(meanInt(trades, func(t *domain.BacktestTrade) *int {
		return t.HoldingMinutes
	}))

	stats.MaxConsecutiveWins, stats.MaxConsecutiveLosses = computeStreaks(trades)

	stats.AverageEntryQuality = round2(meanInt(trades, func(t *domain.BacktestTrade) *int {
		return t.EntryQuality
	}))
	stats.AverageExecutionQuality = round2(meanInt(trades, func(t *domain.BacktestTrade) *int {
		return t.ExecutionQuality
	}))
	stats.AverageChecklistScore = round2(meanFloat(trades, func(t *domain.BacktestTrade) *float64 {
		return t.ChecklistScore
	}))
	stats.RuleFollowingRate = round2(computeRuleFollowingRate(trades))

	return stats
}

// computeProfitFactor divides gross profit by absolute gross loss. A zero
// loss sum with positive wins is capped at ProfitFactorCap instead of
// producing infinity; both sums zero yields 0.
func computeProfitFactor(winSum, lossSum float64) float64 {
	absLoss := math.Abs(lossSum)
	if absLoss == 0 {
		if winSum > 0 {
			return domain.ProfitFactorCap
		}
		return 0
	}
	return winSum / absLoss
}

// computeStreaks finds the longest win and loss runs in date order.
// A breakeven resets both counters.
func computeStreaks(trades []*domain.BacktestTrade) (maxWins, maxLosses int) {
	sorted := make([]*domain.BacktestTrade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TradeDate < sorted[j].TradeDate
	})

	currentWins := 0
	currentLosses := 0
	for _, t := range sorted {
		switch t.Outcome {
		case domain.OutcomeWin:
			currentWins++
			currentLosses = 0
			if currentWins > maxWins {
				maxWins = currentWins
			}
		case domain.OutcomeLoss:
			currentLosses++
			currentWins = 0
			if currentLosses > maxLosses {
				maxLosses = currentLosses
			}
		default:
			currentWins = 0
			currentLosses = 0
		}
	}
	return maxWins, maxLosses
}

// computeRuleFollowingRate is the percent of ALL trades with FollowedRules
// true, not just trades where the flag was recorded.
func computeRuleFollowingRate(trades []*domain.BacktestTrade) float64 {
	if len(trades) == 0 {
		return 0
	}
	followed := 0
	for _, t := range trades {
		if t.FollowedRules != nil && *t.FollowedRules {
			followed++
		}
	}
	return float64(followed) / float64(len(trades)) * 100
}

// meanFloat averages a nullable float field over the trades where it is
// present. Absent values are excluded from both sum and denominator.
func meanFloat(trades []*domain.BacktestTrade, field func(*domain.BacktestTrade) *float64) float64 {
	sum := 0.0
	count := 0
	for _, t := range trades {
		if v := field(t); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// meanInt averages a nullable int field over the trades where it is present.
func meanInt(trades []*domain.BacktestTrade, field func(*domain.BacktestTrade) *int) float64 {
	sum := 0
	count := 0
	for _, t := range trades {
		if v := field(t); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// round2 rounds to 2 decimal places. Applied only at the output boundary.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
