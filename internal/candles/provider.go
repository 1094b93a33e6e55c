package candles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tradetaper-analytics/internal/domain"
)

// DefaultTimeout is the default HTTP timeout for provider requests.
const DefaultTimeout = 30 * time.Second

// Provider fetches candles from an external market data source.
type Provider interface {
	// FetchCandles retrieves candles for [start, end] in ms. An empty slice
	// with nil error means the provider had no data for the range.
	FetchCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]*domain.MarketCandle, error)
}

// HTTPProvider implements Provider over a JSON HTTP endpoint.
type HTTPProvider struct {
	endpoint string
	source   string
	client   *http.Client
}

// ProviderOption configures HTTPProvider.
type ProviderOption func(*HTTPProvider)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ProviderOption {
	return func(p *HTTPProvider) {
		p.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *HTTPProvider) {
		p.client = client
	}
}

// NewHTTPProvider creates a new HTTP candle provider. The source name
// is recorded on every candle the provider returns.
func NewHTTPProvider(endpoint, source string, opts ...ProviderOption) *HTTPProvider {
	p := &HTTPProvider{
		endpoint: endpoint,
		source:   source,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ Provider = (*HTTPProvider)(nil)

// candlePayload is the wire shape of a single candle from the provider.
type candlePayload struct {
	Timestamp int64    `json:"timestamp"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    *float64 `json:"volume,omitempty"`
}

// FetchCandles performs a single GET request. No retries; the caller
// falls back to cached data when the provider fails or returns nothing.
func (p *HTTPProvider) FetchCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]*domain.MarketCandle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", timeframe)
	q.Set("start", fmt.Sprintf("%d", start))
	q.Set("end", fmt.Sprintf("%d", end))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var payload []candlePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	candles := make([]*domain.MarketCandle, 0, len(payload))
	for _, c := range payload {
		candles = append(candles, &domain.MarketCandle{
			Symbol:    symbol,
			Timeframe: timeframe,
			Timestamp: c.Timestamp,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
			Source:    p.source,
		})
	}

	return candles, nil
}
