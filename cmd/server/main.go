// Package main runs the backtest analytics service: the HTTP API, the
// Prometheus metrics endpoint, the optional live candle feed, and the
// scheduled candle retention cleanup.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"tradetaper-analytics/internal/analytics"
	"tradetaper-analytics/internal/api"
	"tradetaper-analytics/internal/candles"
	"tradetaper-analytics/internal/observability"
	"tradetaper-analytics/internal/storage"
	chstore "tradetaper-analytics/internal/storage/clickhouse"
	"tradetaper-analytics/internal/storage/memory"
	"tradetaper-analytics/internal/storage/migrations"
	pgstore "tradetaper-analytics/internal/storage/postgres"
)

type stores struct {
	trades  storage.BacktestTradeStore
	logs    storage.MarketLogStore
	candles storage.CandleStore
}

func main() {
	// Load .env if present; system env wins by being read afterwards.
	_ = godotenv.Load()

	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP API listen address")
	metricsAddr := flag.String("metrics-addr", envOr("METRICS_ADDR", ":9090"), "Prometheus metrics HTTP address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	providerURL := flag.String("provider-url", os.Getenv("CANDLE_PROVIDER_URL"), "Candle provider HTTP endpoint")
	providerName := flag.String("provider-name", envOr("CANDLE_PROVIDER_NAME", "polygon"), "Source tag for fetched candles")
	feedURL := flag.String("feed-url", os.Getenv("CANDLE_FEED_URL"), "Optional websocket candle feed endpoint")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	cleanupInterval := flag.Duration("cleanup-interval", 24*time.Hour, "Candle retention cleanup interval")
	retentionDays := flag.Int("retention-days", candles.DefaultRetentionDays, "Candle retention window in days")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		log.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}
	if *providerURL == "" {
		log.Fatal("--provider-url is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		log.WithError(err).Fatal("Failed to create stores")
	}
	defer cleanup()

	provider := candles.NewHTTPProvider(*providerURL, *providerName)
	cache := candles.NewCache(st.candles, provider, log)
	facade := analytics.NewFacade(st.trades, st.logs, analytics.DefaultRecommendationConfig())
	handler := api.NewHandler(facade, st.trades, st.logs, cache, log)

	// Optional live feed keeps the cache warm outside the read path.
	if *feedURL != "" {
		stream, err := candles.NewStream(ctx, *feedURL, st.candles, nil, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect candle feed")
		}
		defer stream.Close()
		log.WithField("endpoint", *feedURL).Info("Candle feed connected")
	}

	// Scheduled retention cleanup.
	go func() {
		ticker := time.NewTicker(*cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := cache.Cleanup(ctx, *retentionDays)
				if err != nil {
					log.WithError(err).Warn("Candle cleanup failed")
					continue
				}
				observability.DefaultMetrics.LastSuccessfulCleanup.SetToCurrentTime()
				log.WithField("removed", removed).Debug("Candle cleanup finished")
			}
		}
	}()

	// Prometheus metrics endpoint.
	metricsServer := &http.Server{Addr: *metricsAddr, Handler: observability.Handler()}
	go func() {
		log.WithField("addr", *metricsAddr).Info("Metrics endpoint listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Metrics server failed")
		}
	}()

	apiServer := &http.Server{Addr: *listenAddr, Handler: handler.Router()}
	go func() {
		log.WithField("addr", *listenAddr).Info("API listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("API server failed")
			cancel()
		}
	}()

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("API shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Metrics shutdown failed")
	}
}

// createStores builds the storage layer: in-memory for local runs, or
// Postgres (trades, market logs) plus ClickHouse (candles) with migrations
// applied.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*stores, func(), error) {
	if useMemory {
		return &stores{
			trades:  memory.NewBacktestTradeStore(),
			logs:    memory.NewMarketLogStore(),
			candles: memory.NewCandleStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	st := &stores{
		trades:  pgstore.NewBacktestTradeStore(pool),
		logs:    pgstore.NewMarketLogStore(pool),
		candles: chstore.NewCandleStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return st, cleanup, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
