package domain

// MixedValue is reported as the dominant value of an empty distribution.
const MixedValue = "Mixed"

// Sample size statuses for tag discoveries.
const (
	SampleInsufficient = "insufficient" // < 5 occurrences
	SampleMinimal      = "minimal"      // < 15
	SampleAdequate     = "adequate"     // < 30
	SampleRobust       = "robust"
)

// TagDiscovery is the per-tag behavioral summary mined from market logs.
type TagDiscovery struct {
	Tag         string  `json:"tag"`
	Occurrences int     `json:"occurrences"`
	Confidence  float64 `json:"confidence"` // percent of all logs, 2 decimals

	DominantMovement  string `json:"dominant_movement"`
	DominantSentiment string `json:"dominant_sentiment"`
	DominantSession   string `json:"dominant_session"`
	DominantTimeframe string `json:"dominant_timeframe"`

	AverageSignificance float64 `json:"average_significance"`
	SampleSizeStatus    string  `json:"sample_size_status"`
}

// TagCorrelation is a pair of tags that co-occur across logs, with the
// movement type that dominates those logs and how often it holds.
type TagCorrelation struct {
	Pair             string  `json:"pair"` // sorted tags joined with " + "
	Occurrences      int     `json:"occurrences"`
	DominantMovement string  `json:"dominant_movement"`
	SuccessRate      float64 `json:"success_rate"` // percent, 2 decimals
}

// PatternAnalysis is the full pattern-discovery result over a user's logs.
type PatternAnalysis struct {
	TotalLogs          int              `json:"total_logs"`
	MinimumForAnalysis int              `json:"minimum_for_analysis"`
	CanAnalyze         bool             `json:"can_analyze"`
	NeedsMoreData      int              `json:"needs_more_data,omitempty"`
	Discoveries        []TagDiscovery   `json:"discoveries"`
	Correlations       []TagCorrelation `json:"correlations"`
}
