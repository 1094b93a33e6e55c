package analytics

import (
	"testing"

	"tradetaper-analytics/internal/domain"
)

func matrixTrade(session, timeframe, outcome string, pnl float64, date int64) *domain.BacktestTrade {
	t := trade(outcome, pnl, date)
	t.Session = session
	t.Timeframe = timeframe
	return t
}

func TestMatrix_SparseCells(t *testing.T) {
	trades := []*domain.BacktestTrade{
		matrixTrade("london", "5m", domain.OutcomeWin, 100, 1),
		matrixTrade("london", "5m", domain.OutcomeLoss, -50, 2),
		matrixTrade("ny", "15m", domain.OutcomeWin, 80, 3),
	}

	m := Matrix(trades, domain.DimensionSession, domain.DimensionTimeframe)

	if len(m.Rows) != 2 || len(m.Columns) != 2 {
		t.Fatalf("shape = %dx%d, want 2x2 axes", len(m.Rows), len(m.Columns))
	}
	// Only 2 of the 4 pairs have trades; empty pairs are omitted.
	if len(m.Cells) != 2 {
		t.Fatalf("cells = %d, want 2 (sparse)", len(m.Cells))
	}

	for _, cell := range m.Cells {
		switch {
		case cell.Row == "london" && cell.Column == "5m":
			if cell.Stats.TotalTrades != 2 {
				t.Errorf("london/5m TotalTrades = %d, want 2", cell.Stats.TotalTrades)
			}
		case cell.Row == "ny" && cell.Column == "15m":
			if cell.Stats.TotalTrades != 1 {
				t.Errorf("ny/15m TotalTrades = %d, want 1", cell.Stats.TotalTrades)
			}
		default:
			t.Errorf("unexpected cell %s/%s", cell.Row, cell.Column)
		}
	}
}

func TestMatrix_UnknownSubstitution(t *testing.T) {
	trades := []*domain.BacktestTrade{
		matrixTrade("", "", domain.OutcomeWin, 10, 1),
	}

	m := Matrix(trades, domain.DimensionSession, domain.DimensionTimeframe)

	if len(m.Rows) != 1 || m.Rows[0] != domain.UnknownValue {
		t.Errorf("Rows = %v, want [unknown]", m.Rows)
	}
	if len(m.Cells) != 1 || m.Cells[0].Row != domain.UnknownValue || m.Cells[0].Column != domain.UnknownValue {
		t.Errorf("expected single unknown/unknown cell, got %+v", m.Cells)
	}
}

func TestMatrix_Empty(t *testing.T) {
	m := Matrix(nil, domain.DimensionSession, domain.DimensionTimeframe)

	if len(m.Rows) != 0 || len(m.Columns) != 0 || len(m.Cells) != 0 {
		t.Errorf("empty input should produce empty matrix, got %+v", m)
	}
}
