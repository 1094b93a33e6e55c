package domain

// BacktestStats is the aggregate performance summary of a set of backtest
// trades. Derived, never persisted; recomputed on each query. An empty
// trade set produces the zero value of every field.
type BacktestStats struct {
	TotalTrades int `json:"total_trades"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Breakevens  int `json:"breakevens"`

	WinRate         float64 `json:"win_rate"` // percent, 2 decimals
	TotalPnlDollars float64 `json:"total_pnl_dollars"`
	TotalPnlPips    float64 `json:"total_pnl_pips"`
	AverageWin      float64 `json:"average_win"`
	AverageLoss     float64 `json:"average_loss"` // absolute value
	ProfitFactor    float64 `json:"profit_factor"`
	Expectancy      float64 `json:"expectancy"`

	AverageRMultiple      float64 `json:"average_r_multiple"`
	AverageHoldingMinutes float64 `json:"average_holding_minutes"`

	MaxConsecutiveWins   int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`

	AverageEntryQuality     float64 `json:"average_entry_quality"`
	AverageExecutionQuality float64 `json:"average_execution_quality"`
	RuleFollowingRate       float64 `json:"rule_following_rate"` // percent of all trades
	AverageChecklistScore   float64 `json:"average_checklist_score"`
}

// ProfitFactorCap replaces an infinite profit factor (wins with zero
// losses) so serialized output never carries Inf.
const ProfitFactorCap = 999.99

// Recommendation labels attached to a dimension breakdown.
const (
	RecommendationTrade    = "TRADE"
	RecommendationCaution  = "CAUTION"
	RecommendationAvoid    = "AVOID"
	RecommendationMoreData = "MORE_DATA"
)

// DimensionStats is the per-value performance summary within one dimension.
type DimensionStats struct {
	Dimension      Dimension      `json:"dimension"`
	Value          string         `json:"value"`
	Stats          *BacktestStats `json:"stats"`
	Recommendation string         `json:"recommendation"`
}

// MatrixCell is one populated cell of a performance matrix. Pairs with no
// trades are omitted entirely; the matrix is sparse.
type MatrixCell struct {
	Row    string         `json:"row"`
	Column string         `json:"column"`
	Stats  *BacktestStats `json:"stats"`
}

// PerformanceMatrix cross-tabulates two dimensions. Rows and Columns are
// the distinct observed values; the shape is data-driven and varies run
// to run.
type PerformanceMatrix struct {
	RowDimension    Dimension    `json:"row_dimension"`
	ColumnDimension Dimension    `json:"column_dimension"`
	Rows            []string     `json:"rows"`
	Columns         []string     `json:"columns"`
	Cells           []MatrixCell `json:"cells"`
}

// DateRange bounds the trades that fed an analysis bundle (ms, UTC).
type DateRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// AnalysisBundle is the full controller-facing analysis payload for one
// strategy: overall stats plus every dimension breakdown and the best and
// worst qualifying condition per dimension.
type AnalysisBundle struct {
	Overall    *BacktestStats                 `json:"overall"`
	Dimensions map[Dimension][]DimensionStats `json:"dimensions"`
	Best       map[Dimension]*DimensionStats  `json:"best_conditions"`
	Worst      map[Dimension]*DimensionStats  `json:"worst_conditions"`
	TradeCount int                            `json:"trade_count"`
	DateRange  *DateRange                     `json:"date_range,omitempty"`
}
