package analytics

import (
	"math"
	"testing"

	"tradetaper-analytics/internal/domain"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func bptr(v bool) *bool       { return &v }

// trade builds a minimal trade with the given outcome, pnl and date.
func trade(outcome string, pnl float64, date int64) *domain.BacktestTrade {
	return &domain.BacktestTrade{
		Outcome:    outcome,
		PnlDollars: fptr(pnl),
		TradeDate:  date,
	}
}

func TestCalculate_EmptyInput(t *testing.T) {
	stats := Calculate(nil)

	if stats.TotalTrades != 0 || stats.Wins != 0 || stats.Losses != 0 || stats.Breakevens != 0 {
		t.Errorf("expected zero counts, got %+v", stats)
	}
	// No division may leak NaN or Inf into any field.
	for name, v := range map[string]float64{
		"WinRate":      stats.WinRate,
		"AverageWin":   stats.AverageWin,
		"AverageLoss":  stats.AverageLoss,
		"ProfitFactor": stats.ProfitFactor,
		"Expectancy":   stats.Expectancy,
		"AvgRMultiple": stats.AverageRMultiple,
	} {
		if v != 0 {
			t.Errorf("%s = %v, want 0", name, v)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is NaN/Inf", name)
		}
	}
}

func TestCalculate_OutcomePartition(t *testing.T) {
	trades := []*domain.BacktestTrade{
		trade(domain.OutcomeWin, 100, 1),
		trade(domain.OutcomeWin, 50, 2),
		trade(domain.OutcomeLoss, -30, 3),
		trade(domain.OutcomeBreakeven, 0, 4),
	}

	stats := Calculate(trades)

	if stats.Wins+stats.Losses+stats.Breakevens != stats.TotalTrades {
		t.Errorf("partition does not sum: %d+%d+%d != %d",
			stats.Wins, stats.Losses, stats.Breakevens, stats.TotalTrades)
	}
	if stats.Wins != 2 || stats.Losses != 1 || stats.Breakevens != 1 {
		t.Errorf("got wins=%d losses=%d breakevens=%d", stats.Wins, stats.Losses, stats.Breakevens)
	}
	if stats.WinRate < 0 || stats.WinRate > 100 {
		t.Errorf("WinRate %v out of [0,100]", stats.WinRate)
	}
	if stats.WinRate != 50.0 {
		t.Errorf("WinRate = %v, want 50.0", stats.WinRate)
	}
}

func TestCalculate_ProfitFactorSentinel(t *testing.T) {
	// Wins with zero losses: capped, never Inf.
	stats := Calculate([]*domain.BacktestTrade{
		trade(domain.OutcomeWin, 100, 1),
		trade(domain.OutcomeWin, 200, 2),
	})
	if stats.ProfitFactor != domain.ProfitFactorCap {
		t.Errorf("ProfitFactor = %v, want sentinel %v", stats.ProfitFactor, domain.ProfitFactorCap)
	}

	// Both sums zero: profit factor 0.
	stats = Calculate([]*domain.BacktestTrade{
		trade(domain.OutcomeBreakeven, 0, 1),
	})
	if stats.ProfitFactor != 0 {
		t.Errorf("ProfitFactor = %v, want 0", stats.ProfitFactor)
	}
}

func TestCalculate_Streaks(t *testing.T) {
	// win,win,loss,win,win,win in date order.
	trades := []*domain.BacktestTrade{
		trade(domain.OutcomeWin, 10, 1),
		trade(domain.OutcomeWin, 10, 2),
		trade(domain.OutcomeLoss, -10, 3),
		trade(domain.OutcomeWin, 10, 4),
		trade(domain.OutcomeWin, 10, 5),
		trade(domain.OutcomeWin, 10, 6),
	}

	stats := Calculate(trades)

	if stats.MaxConsecutiveWins != 3 {
		t.Errorf("MaxConsecutiveWins = %d, want 3", stats.MaxConsecutiveWins)
	}
	if stats.MaxConsecutiveLosses != 1 {
		t.Errorf("MaxConsecutiveLosses = %d, want 1", stats.MaxConsecutiveLosses)
	}
}

func TestCalculate_StreaksSortByDate(t *testing.T) {
	// Input order scrambled; streaks follow trade date, not input order.
	trades := []*domain.BacktestTrade{
		trade(domain.OutcomeLoss, -10, 3),
		trade(domain.OutcomeWin, 10, 6),
		trade(domain.OutcomeWin, 10, 1),
		trade(domain.OutcomeWin, 10, 5),
		trade(domain.OutcomeWin, 10, 2),
		trade(domain.OutcomeWin, 10, 4),
	}

	stats := Calculate(trades)

	if stats.MaxConsecutiveWins != 3 {
		t.Errorf("MaxConsecutiveWins = %d, want 3", stats.MaxConsecutiveWins)
	}
}

func TestCalculate_BreakevenResetsStreaks(t *testing.T) {
	trades := []*domain.BacktestTrade{
		trade(domain.OutcomeWin, 10, 1),
		trade(domain.OutcomeWin, 10, 2),
		trade(domain.OutcomeBreakeven, 0, 3),
		trade(domain.OutcomeWin, 10, 4),
	}

	stats := Calculate(trades)

	if stats.MaxConsecutiveWins != 2 {
		t.Errorf("MaxConsecutiveWins = %d, want 2 (breakeven resets)", stats.MaxConsecutiveWins)
	}
}

func TestCalculate_AbsentRMultipleExcluded(t *testing.T) {
	withR := trade(domain.OutcomeWin, 10, 1)
	withR.RMultiple = fptr(2.0)
	noR := trade(domain.OutcomeLoss, -10, 2)
	alsoR := trade(domain.OutcomeWin, 10, 3)
	alsoR.RMultiple = fptr(4.0)

	stats := Calculate([]*domain.BacktestTrade{withR, noR, alsoR})

	// Mean over present values only: (2+4)/2, not (2+0+4)/3.
	if stats.AverageRMultiple != 3.0 {
		t.Errorf("AverageRMultiple = %v, want 3.0", stats.AverageRMultiple)
	}
}

func TestCalculate_AbsentPnlCountsTowardTotals(t *testing.T) {
	noPnl := &domain.BacktestTrade{Outcome: domain.OutcomeWin, TradeDate: 1}
	withPnl := trade(domain.OutcomeWin, 100, 2)

	stats := Calculate([]*domain.BacktestTrade{noPnl, withPnl})

	if stats.TotalTrades != 2 {
		t.Errorf("TotalTrades = %d, want 2", stats.TotalTrades)
	}
	if stats.TotalPnlDollars != 100 {
		t.Errorf("TotalPnlDollars = %v, want 100 (absent treated as 0 in sum)", stats.TotalPnlDollars)
	}
}

func TestCalculate_RuleFollowingRate(t *testing.T) {
	a := trade(domain.OutcomeWin, 10, 1)
	a.FollowedRules = bptr(true)
	b := trade(domain.OutcomeLoss, -10, 2)
	b.FollowedRules = bptr(false)
	c := trade(domain.OutcomeWin, 10, 3) // flag never recorded

	stats := Calculate([]*domain.BacktestTrade{a, b, c})

	// Percent of ALL trades, not just trades with the flag present.
	want := round2(1.0 / 3.0 * 100)
	if stats.RuleFollowingRate != want {
		t.Errorf("RuleFollowingRate = %v, want %v", stats.RuleFollowingRate, want)
	}
}

func TestCalculate_QualityAveragesPresentOnly(t *testing.T) {
	a := trade(domain.OutcomeWin, 10, 1)
	a.EntryQuality = iptr(5)
	b := trade(domain.OutcomeLoss, -10, 2)
	b.EntryQuality = iptr(3)
	c := trade(domain.OutcomeWin, 10, 3) // no quality recorded

	stats := Calculate([]*domain.BacktestTrade{a, b, c})

	if stats.AverageEntryQuality != 4.0 {
		t.Errorf("AverageEntryQuality = %v, want 4.0", stats.AverageEntryQuality)
	}
}

func TestCalculate_EndToEnd(t *testing.T) {
	// 20 trades: 12 wins averaging +150, 8 losses averaging -80,
	// all dated distinctly.
	var trades []*domain.BacktestTrade
	date := int64(1)
	for i := 0; i < 12; i++ {
		trades = append(trades, trade(domain.OutcomeWin, 150, date))
		date++
	}
	for i := 0; i < 8; i++ {
		trades = append(trades, trade(domain.OutcomeLoss, -80, date))
		date++
	}

	stats := Calculate(trades)

	if stats.WinRate != 60.00 {
		t.Errorf("WinRate = %v, want 60.00", stats.WinRate)
	}
	if stats.AverageWin != 150.00 {
		t.Errorf("AverageWin = %v, want 150.00", stats.AverageWin)
	}
	if stats.AverageLoss != 80.00 {
		t.Errorf("AverageLoss = %v, want 80.00", stats.AverageLoss)
	}
	// (12*150)/(8*80) = 2.8125 → 2.81 at the boundary.
	if stats.ProfitFactor != 2.81 {
		t.Errorf("ProfitFactor = %v, want 2.81", stats.ProfitFactor)
	}
	if stats.TotalPnlDollars != 12*150-8*80 {
		t.Errorf("TotalPnlDollars = %v, want %v", stats.TotalPnlDollars, 12*150-8*80)
	}
	// Expectancy = 0.6*150 - 0.4*80 = 58.
	if stats.Expectancy != 58.00 {
		t.Errorf("Expectancy = %v, want 58.00", stats.Expectancy)
	}
}
