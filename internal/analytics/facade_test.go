package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/storage"
	"tradetaper-analytics/internal/storage/memory"
)

func newTestFacade(t *testing.T, trades []*domain.BacktestTrade) (*Facade, *memory.MarketLogStore) {
	t.Helper()

	tradeStore := memory.NewBacktestTradeStore()
	logStore := memory.NewMarketLogStore()
	if err := tradeStore.InsertBulk(context.Background(), trades); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	return NewFacade(tradeStore, logStore, DefaultRecommendationConfig()), logStore
}

func facadeTrade(id, userID, strategyID, session, outcome string, pnl float64, date int64) *domain.BacktestTrade {
	return &domain.BacktestTrade{
		TradeID:    id,
		UserID:     userID,
		StrategyID: strategyID,
		Symbol:     "EURUSD",
		Direction:  "long",
		Session:    session,
		Outcome:    outcome,
		PnlDollars: fptr(pnl),
		TradeDate:  date,
	}
}

func TestFacade_OverallStatsEmpty(t *testing.T) {
	f, _ := newTestFacade(t, nil)

	stats, err := f.OverallStats(context.Background(), "user1")
	if err != nil {
		t.Fatalf("OverallStats failed: %v", err)
	}
	if stats.TotalTrades != 0 || stats.WinRate != 0 {
		t.Errorf("Expected zero stats for empty set, got %+v", stats)
	}
}

func TestFacade_StrategyScoping(t *testing.T) {
	trades := []*domain.BacktestTrade{
		facadeTrade("t1", "user1", "stratA", "london", domain.OutcomeWin, 100, 1),
		facadeTrade("t2", "user1", "stratA", "london", domain.OutcomeLoss, -50, 2),
		facadeTrade("t3", "user1", "stratB", "london", domain.OutcomeWin, 200, 3),
		facadeTrade("t4", "user2", "stratA", "london", domain.OutcomeWin, 300, 4),
	}
	f, _ := newTestFacade(t, trades)

	stats, err := f.StrategyStats(context.Background(), "stratA", "user1")
	if err != nil {
		t.Fatalf("StrategyStats failed: %v", err)
	}
	if stats.TotalTrades != 2 || stats.Wins != 1 {
		t.Errorf("Strategy scoping wrong: %+v", stats)
	}

	overall, err := f.OverallStats(context.Background(), "user1")
	if err != nil {
		t.Fatalf("OverallStats failed: %v", err)
	}
	if overall.TotalTrades != 3 {
		t.Errorf("User scoping wrong: TotalTrades = %d, want 3", overall.TotalTrades)
	}
}

func TestFacade_StatsByDimensionInvalid(t *testing.T) {
	f, _ := newTestFacade(t, nil)

	_, err := f.StatsByDimension(context.Background(), "stratA", "user1", domain.Dimension("bogus"))
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestFacade_AnalysisData(t *testing.T) {
	var trades []*domain.BacktestTrade
	// 10 london wins and 10 newyork losses: both clear the sample floor.
	for i := 0; i < 10; i++ {
		trades = append(trades,
			facadeTrade(fmt.Sprintf("w%d", i), "user1", "stratA", "london", domain.OutcomeWin, 100, int64(1000+i)),
			facadeTrade(fmt.Sprintf("l%d", i), "user1", "stratA", "newyork", domain.OutcomeLoss, -50, int64(2000+i)),
		)
	}
	f, _ := newTestFacade(t, trades)

	bundle, err := f.AnalysisData(context.Background(), "stratA", "user1")
	if err != nil {
		t.Fatalf("AnalysisData failed: %v", err)
	}

	if bundle.TradeCount != 20 {
		t.Errorf("TradeCount = %d, want 20", bundle.TradeCount)
	}
	if len(bundle.Dimensions) != len(domain.AllDimensions) {
		t.Errorf("Expected %d dimension breakdowns, got %d", len(domain.AllDimensions), len(bundle.Dimensions))
	}
	if bundle.DateRange == nil || bundle.DateRange.Start != 1000 || bundle.DateRange.End != 2009 {
		t.Errorf("DateRange = %+v", bundle.DateRange)
	}

	best := bundle.Best[domain.DimensionSession]
	worst := bundle.Worst[domain.DimensionSession]
	if best == nil || best.Value != "london" {
		t.Errorf("Best session = %+v, want london", best)
	}
	if worst == nil || worst.Value != "newyork" {
		t.Errorf("Worst session = %+v, want newyork", worst)
	}
}

func TestFacade_AnalysisDataNoQualifyingGroups(t *testing.T) {
	// Too few trades per group to clear the sample floor.
	trades := []*domain.BacktestTrade{
		facadeTrade("t1", "user1", "stratA", "london", domain.OutcomeWin, 100, 1),
		facadeTrade("t2", "user1", "stratA", "newyork", domain.OutcomeLoss, -50, 2),
	}
	f, _ := newTestFacade(t, trades)

	bundle, err := f.AnalysisData(context.Background(), "stratA", "user1")
	if err != nil {
		t.Fatalf("AnalysisData failed: %v", err)
	}
	if _, ok := bundle.Best[domain.DimensionSession]; ok {
		t.Error("No group should qualify as best below the sample floor")
	}
	if _, ok := bundle.Worst[domain.DimensionSession]; ok {
		t.Error("No group should qualify as worst below the sample floor")
	}
}

func TestFacade_AnalyzePatterns(t *testing.T) {
	f, logStore := newTestFacade(t, nil)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		l := &domain.MarketLog{
			LogID:        fmt.Sprintf("l%d", i),
			UserID:       "user1",
			Symbol:       "EURUSD",
			LogDate:      int64(i),
			Tags:         []string{"order_block"},
			MovementType: "bullish",
		}
		if err := logStore.Insert(ctx, l); err != nil {
			t.Fatalf("Seed log failed: %v", err)
		}
	}

	analysis, err := f.AnalyzePatterns(ctx, "user1")
	if err != nil {
		t.Fatalf("AnalyzePatterns failed: %v", err)
	}
	if !analysis.CanAnalyze {
		t.Fatal("Expected CanAnalyze with 15 logs")
	}
	if len(analysis.Discoveries) != 1 || analysis.Discoveries[0].Tag != "order_block" {
		t.Errorf("Unexpected discoveries: %+v", analysis.Discoveries)
	}

	// Other users' logs are invisible.
	other, err := f.AnalyzePatterns(ctx, "user2")
	if err != nil {
		t.Fatalf("AnalyzePatterns failed: %v", err)
	}
	if other.TotalLogs != 0 || other.CanAnalyze {
		t.Errorf("Expected empty analysis for other user, got %+v", other)
	}
}

func TestFacade_DistinctSymbols(t *testing.T) {
	a := facadeTrade("t1", "user1", "stratA", "london", domain.OutcomeWin, 100, 1)
	b := facadeTrade("t2", "user1", "stratA", "london", domain.OutcomeWin, 100, 2)
	b.Symbol = "GBPUSD"
	f, _ := newTestFacade(t, []*domain.BacktestTrade{a, b})

	symbols, err := f.DistinctSymbols(context.Background(), "user1")
	if err != nil {
		t.Fatalf("DistinctSymbols failed: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "EURUSD" {
		t.Errorf("Unexpected symbols: %v", symbols)
	}
}
