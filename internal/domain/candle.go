package domain

// MarketCandle is one cached OHLC price candle.
// (Symbol, Timeframe, Timestamp) is unique; that triple is the natural
// cache key granularity.
type MarketCandle struct {
	Symbol    string
	Timeframe string
	Timestamp int64 // candle open time (ms, UTC)
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    *float64
	Source    string // provider tag, e.g. "polygon", "stream"
}

// ChartCandle is the chart-friendly shape served to renderers:
// epoch seconds plus OHLC floats.
type ChartCandle struct {
	Time   int64    `json:"time"` // epoch seconds
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume *float64 `json:"volume,omitempty"`
}

// ToChart converts a cached candle into its chart shape.
func (c *MarketCandle) ToChart() ChartCandle {
	return ChartCandle{
		Time:   c.Timestamp / 1000,
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Volume,
	}
}
