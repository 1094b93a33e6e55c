package domain

// MarketLog represents one free-form market observation. Tags are always
// normalized (lower-case, underscored, alias-resolved) before the record
// is stored or analyzed.
type MarketLog struct {
	LogID   string // deterministic hash
	UserID  string
	Symbol  string
	LogDate int64 // observation timestamp (ms, UTC)

	Timeframe string
	Session   string
	TimeRange string // optional, e.g. "08:00-10:00"

	Tags        []string
	Observation string

	MovementType string // optional, e.g. "bullish", "bearish", "ranging"
	Sentiment    string // optional
	Significance int    // 1-5; 0 means unset, analyzed as 3
	Screenshot   string // optional storage reference
}

// DefaultSignificance is assumed when a log carries no significance rating.
const DefaultSignificance = 3
