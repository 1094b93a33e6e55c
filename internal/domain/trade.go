package domain

// BacktestTrade represents one simulated trade recorded in a backtesting
// session. Nullable result fields are pointers: a nil value means the field
// was never recorded and must be excluded from averages rather than
// treated as zero.
type BacktestTrade struct {
	TradeID    string // deterministic hash
	StrategyID string // owning backtest strategy
	UserID     string // owning user

	// Instrument
	Symbol    string
	Direction string // "long" | "short"

	// Prices
	EntryPrice float64
	ExitPrice  float64
	StopLoss   *float64
	TakeProfit *float64
	LotSize    float64

	// Timing dimensions
	Timeframe string
	Session   string // e.g. "london", "new_york"
	KillZone  string
	DayOfWeek string
	HourOfDay int   // 0-23
	TradeDate int64 // trade timestamp (ms, UTC)

	// Setup attributes
	SetupType       string
	Concept         string
	MarketStructure string
	HTFBias         string

	// Results
	Outcome        string   // "win" | "loss" | "breakeven"
	PnlDollars     *float64 // account currency
	PnlPips        *float64
	RMultiple      *float64
	HoldingMinutes *int

	// Quality
	EntryQuality     *int // 1-5
	ExecutionQuality *int // 1-5
	FollowedRules    *bool
	ChecklistScore   *float64 // 0-100 percent

	Notes string
}

// Outcome values. Every trade carries exactly one of these.
const (
	OutcomeWin       = "win"
	OutcomeLoss      = "loss"
	OutcomeBreakeven = "breakeven"
)

// Dimension is a categorical trade attribute used to slice the trade
// population for comparative statistics. The set is closed: DimensionValue
// switches exhaustively over it.
type Dimension string

const (
	DimensionSymbol    Dimension = "symbol"
	DimensionSession   Dimension = "session"
	DimensionTimeframe Dimension = "timeframe"
	DimensionKillZone  Dimension = "killZone"
	DimensionDayOfWeek Dimension = "dayOfWeek"
	DimensionSetupType Dimension = "setupType"
)

// AllDimensions lists every dimension in stable order.
var AllDimensions = []Dimension{
	DimensionSymbol,
	DimensionSession,
	DimensionTimeframe,
	DimensionKillZone,
	DimensionDayOfWeek,
	DimensionSetupType,
}

// UnknownValue groups trades whose dimension field was never recorded.
const UnknownValue = "unknown"

// DimensionValue extracts the trade's value for a dimension, substituting
// UnknownValue when the field is empty so missing trades group together
// instead of being discarded.
func DimensionValue(t *BacktestTrade, dim Dimension) string {
	var v string
	switch dim {
	case DimensionSymbol:
		v = t.Symbol
	case DimensionSession:
		v = t.Session
	case DimensionTimeframe:
		v = t.Timeframe
	case DimensionKillZone:
		v = t.KillZone
	case DimensionDayOfWeek:
		v = t.DayOfWeek
	case DimensionSetupType:
		v = t.SetupType
	}
	if v == "" {
		return UnknownValue
	}
	return v
}

// ValidDimension reports whether dim is a member of the closed dimension set.
func ValidDimension(dim Dimension) bool {
	switch dim {
	case DimensionSymbol, DimensionSession, DimensionTimeframe,
		DimensionKillZone, DimensionDayOfWeek, DimensionSetupType:
		return true
	}
	return false
}
