package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/storage"
)

// BacktestTradeStore implements storage.BacktestTradeStore using PostgreSQL.
type BacktestTradeStore struct {
	pool *Pool
}

// NewBacktestTradeStore creates a new BacktestTradeStore.
func NewBacktestTradeStore(pool *Pool) *BacktestTradeStore {
	return &BacktestTradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestTradeStore = (*BacktestTradeStore)(nil)

const tradeColumns = `
	trade_id, strategy_id, user_id,
	symbol, direction,
	entry_price, exit_price, stop_loss, take_profit, lot_size,
	timeframe, session, kill_zone, day_of_week, hour_of_day, trade_date,
	setup_type, concept, market_structure, htf_bias,
	outcome, pnl_dollars, pnl_pips, r_multiple, holding_minutes,
	entry_quality, execution_quality, followed_rules, checklist_score,
	notes
`

const insertTradeQuery = `
	INSERT INTO backtest_trades (` + tradeColumns + `) VALUES (
		$1, $2, $3,
		$4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20,
		$21, $22, $23, $24, $25,
		$26, $27, $28, $29,
		$30
	)
`

func tradeArgs(t *domain.BacktestTrade) []interface{} {
	return []interface{}{
		t.TradeID, t.StrategyID, t.UserID,
		t.Symbol, t.Direction,
		t.EntryPrice, t.ExitPrice, t.StopLoss, t.TakeProfit, t.LotSize,
		t.Timeframe, t.Session, t.KillZone, t.DayOfWeek, t.HourOfDay, t.TradeDate,
		t.SetupType, t.Concept, t.MarketStructure, t.HTFBias,
		t.Outcome, t.PnlDollars, t.PnlPips, t.RMultiple, t.HoldingMinutes,
		t.EntryQuality, t.ExecutionQuality, t.FollowedRules, t.ChecklistScore,
		t.Notes,
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *BacktestTradeStore) Insert(ctx context.Context, t *domain.BacktestTrade) error {
	_, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *BacktestTradeStore) InsertBulk(ctx context.Context, trades []*domain.BacktestTrade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if _, err := tx.Exec(ctx, insertTradeQuery, tradeArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert backtest trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *BacktestTradeStore) GetByID(ctx context.Context, tradeID string) (*domain.BacktestTrade, error) {
	query := `SELECT ` + tradeColumns + ` FROM backtest_trades WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest trade by id: %w", err)
	}
	return t, nil
}

// GetByFilter retrieves trades matching the filter, ordered by trade_date ASC.
func (s *BacktestTradeStore) GetByFilter(ctx context.Context, f storage.TradeFilter) ([]*domain.BacktestTrade, error) {
	var conds []string
	var args []interface{}

	addCond := func(column string, op string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}

	if f.UserID != "" {
		addCond("user_id", "=", f.UserID)
	}
	if f.StrategyID != "" {
		addCond("strategy_id", "=", f.StrategyID)
	}
	if f.Symbol != "" {
		addCond("symbol", "=", f.Symbol)
	}
	if f.Session != "" {
		addCond("session", "=", f.Session)
	}
	if f.Timeframe != "" {
		addCond("timeframe", "=", f.Timeframe)
	}
	if f.Outcome != "" {
		addCond("outcome", "=", f.Outcome)
	}
	if f.From != 0 {
		addCond("trade_date", ">=", f.From)
	}
	if f.To != 0 {
		addCond("trade_date", "<=", f.To)
	}

	query := `SELECT ` + tradeColumns + ` FROM backtest_trades`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY trade_date ASC, trade_id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get backtest trades by filter: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// DistinctSymbols retrieves the distinct symbols traded by a user, sorted ASC.
func (s *BacktestTradeStore) DistinctSymbols(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT symbol
		FROM backtest_trades
		WHERE user_id = $1 AND symbol <> ''
		ORDER BY symbol ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get distinct symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}

	return symbols, nil
}

// scanTrade scans a single row into a BacktestTrade.
func scanTrade(row pgx.Row) (*domain.BacktestTrade, error) {
	var t domain.BacktestTrade

	err := row.Scan(
		&t.TradeID, &t.StrategyID, &t.UserID,
		&t.Symbol, &t.Direction,
		&t.EntryPrice, &t.ExitPrice, &t.StopLoss, &t.TakeProfit, &t.LotSize,
		&t.Timeframe, &t.Session, &t.KillZone, &t.DayOfWeek, &t.HourOfDay, &t.TradeDate,
		&t.SetupType, &t.Concept, &t.MarketStructure, &t.HTFBias,
		&t.Outcome, &t.PnlDollars, &t.PnlPips, &t.RMultiple, &t.HoldingMinutes,
		&t.EntryQuality, &t.ExecutionQuality, &t.FollowedRules, &t.ChecklistScore,
		&t.Notes,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// scanTrades scans multiple rows into a slice of BacktestTrade.
func scanTrades(rows pgx.Rows) ([]*domain.BacktestTrade, error) {
	var trades []*domain.BacktestTrade

	for rows.Next() {
		var t domain.BacktestTrade

		err := rows.Scan(
			&t.TradeID, &t.StrategyID, &t.UserID,
			&t.Symbol, &t.Direction,
			&t.EntryPrice, &t.ExitPrice, &t.StopLoss, &t.TakeProfit, &t.LotSize,
			&t.Timeframe, &t.Session, &t.KillZone, &t.DayOfWeek, &t.HourOfDay, &t.TradeDate,
			&t.SetupType, &t.Concept, &t.MarketStructure, &t.HTFBias,
			&t.Outcome, &t.PnlDollars, &t.PnlPips, &t.RMultiple, &t.HoldingMinutes,
			&t.EntryQuality, &t.ExecutionQuality, &t.FollowedRules, &t.ChecklistScore,
			&t.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan backtest trade row: %w", err)
		}

		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest trade rows: %w", err)
	}

	return trades, nil
}
