package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/storage"
)

// MarketLogStore implements storage.MarketLogStore using PostgreSQL.
// Tags are stored as a native text[] column.
type MarketLogStore struct {
	pool *Pool
}

// NewMarketLogStore creates a new MarketLogStore.
func NewMarketLogStore(pool *Pool) *MarketLogStore {
	return &MarketLogStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketLogStore = (*MarketLogStore)(nil)

const logColumns = `
	log_id, user_id, symbol, log_date,
	timeframe, session, time_range,
	tags, observation, movement_type, sentiment, significance, screenshot
`

// Insert adds a new market log. Returns ErrDuplicateKey if log_id exists.
func (s *MarketLogStore) Insert(ctx context.Context, l *domain.MarketLog) error {
	query := `
		INSERT INTO market_logs (` + logColumns + `) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11, $12, $13
		)
	`

	_, err := s.pool.Exec(ctx, query,
		l.LogID, l.UserID, l.Symbol, l.LogDate,
		l.Timeframe, l.Session, l.TimeRange,
		l.Tags, l.Observation, l.MovementType, l.Sentiment, l.Significance, l.Screenshot,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert market log: %w", err)
	}
	return nil
}

// Update replaces an existing market log. Returns ErrNotFound if not exists.
func (s *MarketLogStore) Update(ctx context.Context, l *domain.MarketLog) error {
	query := `
		UPDATE market_logs SET
			user_id = $2, symbol = $3, log_date = $4,
			timeframe = $5, session = $6, time_range = $7,
			tags = $8, observation = $9, movement_type = $10,
			sentiment = $11, significance = $12, screenshot = $13
		WHERE log_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		l.LogID, l.UserID, l.Symbol, l.LogDate,
		l.Timeframe, l.Session, l.TimeRange,
		l.Tags, l.Observation, l.MovementType, l.Sentiment, l.Significance, l.Screenshot,
	)
	if err != nil {
		return fmt.Errorf("update market log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a market log. Returns ErrNotFound if not exists.
func (s *MarketLogStore) Delete(ctx context.Context, logID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM market_logs WHERE log_id = $1`, logID)
	if err != nil {
		return fmt.Errorf("delete market log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a market log by its ID. Returns ErrNotFound if not exists.
func (s *MarketLogStore) GetByID(ctx context.Context, logID string) (*domain.MarketLog, error) {
	query := `SELECT ` + logColumns + ` FROM market_logs WHERE log_id = $1`

	row := s.pool.QueryRow(ctx, query, logID)
	l, err := scanMarketLog(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get market log by id: %w", err)
	}
	return l, nil
}

// GetByFilter retrieves market logs matching the filter, ordered by log_date ASC.
func (s *MarketLogStore) GetByFilter(ctx context.Context, f storage.LogFilter) ([]*domain.MarketLog, error) {
	var conds []string
	var args []interface{}

	addCond := func(column string, op string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}

	if f.UserID != "" {
		addCond("user_id", "=", f.UserID)
	}
	if f.Symbol != "" {
		addCond("symbol", "=", f.Symbol)
	}
	if f.Timeframe != "" {
		addCond("timeframe", "=", f.Timeframe)
	}
	if f.Session != "" {
		addCond("session", "=", f.Session)
	}
	if f.Sentiment != "" {
		addCond("sentiment", "=", f.Sentiment)
	}
	if f.From != 0 {
		addCond("log_date", ">=", f.From)
	}
	if f.To != 0 {
		addCond("log_date", "<=", f.To)
	}
	if f.Tag != "" {
		// Case-insensitive substring match against any element of tags.
		args = append(args, "%"+strings.ToLower(f.Tag)+"%")
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE lower(t) LIKE $%d)", len(args)))
	}

	query := `SELECT ` + logColumns + ` FROM market_logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY log_date ASC, log_id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get market logs by filter: %w", err)
	}
	defer rows.Close()

	return scanMarketLogs(rows)
}

// scanMarketLog scans a single row into a MarketLog.
func scanMarketLog(row pgx.Row) (*domain.MarketLog, error) {
	var l domain.MarketLog

	err := row.Scan(
		&l.LogID, &l.UserID, &l.Symbol, &l.LogDate,
		&l.Timeframe, &l.Session, &l.TimeRange,
		&l.Tags, &l.Observation, &l.MovementType, &l.Sentiment, &l.Significance, &l.Screenshot,
	)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

// scanMarketLogs scans multiple rows into a slice of MarketLog.
func scanMarketLogs(rows pgx.Rows) ([]*domain.MarketLog, error) {
	var logs []*domain.MarketLog

	for rows.Next() {
		var l domain.MarketLog

		err := rows.Scan(
			&l.LogID, &l.UserID, &l.Symbol, &l.LogDate,
			&l.Timeframe, &l.Session, &l.TimeRange,
			&l.Tags, &l.Observation, &l.MovementType, &l.Sentiment, &l.Significance, &l.Screenshot,
		)
		if err != nil {
			return nil, fmt.Errorf("scan market log row: %w", err)
		}

		logs = append(logs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market log rows: %w", err)
	}

	return logs, nil
}
