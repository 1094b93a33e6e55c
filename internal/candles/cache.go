package candles

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/observability"
	"tradetaper-analytics/internal/storage"
)

// Cache coverage thresholds and retention defaults.
const (
	// ReadCoverageThreshold is the fraction of expected candles that must
	// already be cached for a read to skip the provider.
	ReadCoverageThreshold = 0.5

	// PrefetchCoverageThreshold is the stricter fraction EnsureRange uses
	// when deciding whether a background prefetch is needed.
	PrefetchCoverageThreshold = 0.9

	// DefaultRetentionDays is the cleanup cutoff when none is given.
	DefaultRetentionDays = 90
)

// timeframeMinutes maps supported timeframes to their bar length in minutes.
// Unknown timeframes fall back to 1 minute, which over-estimates the expected
// candle count and so biases toward fetching.
var timeframeMinutes = map[string]int64{
	"1m":  1,
	"5m":  5,
	"15m": 15,
	"30m": 30,
	"1h":  60,
	"4h":  240,
	"1d":  1440,
	"1w":  10080,
}

// Cache is a read-through candle cache backed by a CandleStore, filling
// misses from a Provider.
type Cache struct {
	store    storage.CandleStore
	provider Provider
	log      *logrus.Entry
}

// NewCache creates a candle cache over the given store and provider.
func NewCache(store storage.CandleStore, provider Provider, log *logrus.Logger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{
		store:    store,
		provider: provider,
		log:      log.WithField("component", "candle_cache"),
	}
}

// GetCandles returns chart candles for [start, end] in ms, ascending by time.
// When the cache already covers at least half the expected candles the
// provider is not called; otherwise the range is fetched, persisted best
// effort, and the fresh candles returned. A failing or empty provider
// response falls back to whatever the cache holds.
func (c *Cache) GetCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]domain.ChartCandle, error) {
	if symbol == "" || timeframe == "" || end < start {
		return nil, storage.ErrInvalidInput
	}

	cached, err := c.store.GetRange(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, fmt.Errorf("read candle cache: %w", err)
	}

	expected := expectedCandleCount(timeframe, start, end)
	if float64(len(cached)) >= ReadCoverageThreshold*float64(expected) {
		observability.RecordCandleCacheHit()
		return toChart(cached), nil
	}
	observability.RecordCandleCacheMiss()

	fetchStart := time.Now()
	fresh, err := c.provider.FetchCandles(ctx, symbol, timeframe, start, end)
	observability.RecordProviderCall(providerStatus(err), time.Since(fetchStart).Seconds())
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"symbol":    symbol,
			"timeframe": timeframe,
		}).Warn("Provider fetch failed, serving cached candles")
		return toChart(cached), nil
	}
	if len(fresh) == 0 {
		c.log.WithFields(logrus.Fields{
			"symbol":    symbol,
			"timeframe": timeframe,
		}).Warn("Provider returned no candles, serving cached candles")
		return toChart(cached), nil
	}

	c.persist(ctx, fresh)

	return toChart(fresh), nil
}

// EnsureRange prefetches the range when cached coverage falls below the
// prefetch threshold. It never returns provider data to the caller.
func (c *Cache) EnsureRange(ctx context.Context, symbol, timeframe string, start, end int64) error {
	if symbol == "" || timeframe == "" || end < start {
		return storage.ErrInvalidInput
	}

	cached, err := c.store.GetRange(ctx, symbol, timeframe, start, end)
	if err != nil {
		return fmt.Errorf("read candle cache: %w", err)
	}

	expected := expectedCandleCount(timeframe, start, end)
	if float64(len(cached)) >= PrefetchCoverageThreshold*float64(expected) {
		return nil
	}

	fetchStart := time.Now()
	fresh, err := c.provider.FetchCandles(ctx, symbol, timeframe, start, end)
	observability.RecordProviderCall(providerStatus(err), time.Since(fetchStart).Seconds())
	if err != nil {
		return fmt.Errorf("prefetch candles: %w", err)
	}
	if len(fresh) == 0 {
		return nil
	}

	c.persist(ctx, fresh)
	return nil
}

// Cleanup removes candles older than the given number of days. Zero or
// negative days means the default retention window. Returns the count removed.
func (c *Cache) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = DefaultRetentionDays
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays).UnixMilli()
	removed, err := c.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup candles: %w", err)
	}

	observability.RecordCandlesCleanedUp(removed)
	if removed > 0 {
		c.log.WithFields(logrus.Fields{
			"removed":     removed,
			"older_than":  olderThanDays,
			"cutoff_unix": cutoff,
		}).Info("Removed expired candles")
	}

	return removed, nil
}

// persist writes candles to the store best effort. Cache fills must not
// fail the read that triggered them.
func (c *Cache) persist(ctx context.Context, candles []*domain.MarketCandle) {
	if err := c.store.UpsertBulk(ctx, candles); err != nil {
		c.log.WithError(err).WithField("count", len(candles)).Warn("Failed to persist fetched candles")
	}
}

// expectedCandleCount estimates the number of candles a fully populated
// range would hold. Always at least 1 so coverage math never divides by zero.
func expectedCandleCount(timeframe string, start, end int64) int64 {
	interval, ok := timeframeMinutes[timeframe]
	if !ok {
		interval = 1
	}

	spanMinutes := (end - start) / 60000
	count := spanMinutes / interval
	if count < 1 {
		return 1
	}
	return count
}

func providerStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// toChart converts candles for serving, ascending by time. The store reads
// come back ordered already, but provider responses carry no order guarantee.
func toChart(candles []*domain.MarketCandle) []domain.ChartCandle {
	chart := make([]domain.ChartCandle, 0, len(candles))
	for _, c := range candles {
		chart = append(chart, c.ToChart())
	}
	sort.Slice(chart, func(i, j int) bool { return chart[i].Time < chart[j].Time })
	return chart
}
