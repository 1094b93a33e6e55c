// Package api exposes the analytics engine over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tradetaper-analytics/internal/analytics"
	"tradetaper-analytics/internal/candles"
	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/idhash"
	"tradetaper-analytics/internal/observability"
	"tradetaper-analytics/internal/storage"
	"tradetaper-analytics/internal/tags"
)

// Handler wires the analytics facade, stores and candle cache into HTTP
// routes.
type Handler struct {
	facade *analytics.Facade
	trades storage.BacktestTradeStore
	logs   storage.MarketLogStore
	cache  *candles.Cache
	log    *logrus.Entry
}

// NewHandler creates a new API handler.
func NewHandler(facade *analytics.Facade, trades storage.BacktestTradeStore, logs storage.MarketLogStore, cache *candles.Cache, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		facade: facade,
		trades: trades,
		logs:   logs,
		cache:  cache,
		log:    log.WithField("component", "api"),
	}
}

// Router builds the gin engine with all routes registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), metricsMiddleware())

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/trades", h.CreateTrade)
		v1.POST("/trades/bulk", h.CreateTradesBulk)
		v1.GET("/trades/:id", h.GetTrade)

		v1.GET("/analytics/overview", h.Overview)
		v1.GET("/analytics/symbols", h.Symbols)
		v1.GET("/analytics/strategies/:strategyId/stats", h.StrategyStats)
		v1.GET("/analytics/strategies/:strategyId/dimensions/:dimension", h.DimensionStats)
		v1.GET("/analytics/strategies/:strategyId/matrix", h.Matrix)
		v1.GET("/analytics/strategies/:strategyId/analysis", h.Analysis)

		v1.GET("/patterns", h.Patterns)

		v1.POST("/logs", h.CreateLog)
		v1.PUT("/logs/:id", h.UpdateLog)
		v1.DELETE("/logs/:id", h.DeleteLog)
		v1.GET("/logs/:id", h.GetLog)
		v1.GET("/logs", h.ListLogs)

		v1.GET("/tags/suggestions", h.TagSuggestions)
		v1.GET("/tags/common", h.CommonTags)

		v1.GET("/candles", h.Candles)
	}

	return r
}

// metricsMiddleware records per-route request counts and latency.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.RecordHTTPRequest(route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// tradeRequest is the ingestion shape of one backtest trade. TradeID is
// derived when absent.
type tradeRequest struct {
	TradeID    string `json:"trade_id"`
	StrategyID string `json:"strategy_id" binding:"required"`
	UserID     string `json:"user_id" binding:"required"`

	Symbol    string `json:"symbol" binding:"required"`
	Direction string `json:"direction" binding:"required"`

	EntryPrice float64  `json:"entry_price"`
	ExitPrice  float64  `json:"exit_price"`
	StopLoss   *float64 `json:"stop_loss"`
	TakeProfit *float64 `json:"take_profit"`
	LotSize    float64  `json:"lot_size"`

	Timeframe string `json:"timeframe"`
	Session   string `json:"session"`
	KillZone  string `json:"kill_zone"`
	DayOfWeek string `json:"day_of_week"`
	HourOfDay int    `json:"hour_of_day"`
	TradeDate int64  `json:"trade_date" binding:"required"`

	SetupType       string `json:"setup_type"`
	Concept         string `json:"concept"`
	MarketStructure string `json:"market_structure"`
	HTFBias         string `json:"htf_bias"`

	Outcome        string   `json:"outcome" binding:"required,oneof=win loss breakeven"`
	PnlDollars     *float64 `json:"pnl_dollars"`
	PnlPips        *float64 `json:"pnl_pips"`
	RMultiple      *float64 `json:"r_multiple"`
	HoldingMinutes *int     `json:"holding_minutes"`

	EntryQuality     *int     `json:"entry_quality"`
	ExecutionQuality *int     `json:"execution_quality"`
	FollowedRules    *bool    `json:"followed_rules"`
	ChecklistScore   *float64 `json:"checklist_score"`

	Notes string `json:"notes"`
}

func (r *tradeRequest) toDomain() *domain.BacktestTrade {
	t := &domain.BacktestTrade{
		TradeID:          r.TradeID,
		StrategyID:       r.StrategyID,
		UserID:           r.UserID,
		Symbol:           r.Symbol,
		Direction:        r.Direction,
		EntryPrice:       r.EntryPrice,
		ExitPrice:        r.ExitPrice,
		StopLoss:         r.StopLoss,
		TakeProfit:       r.TakeProfit,
		LotSize:          r.LotSize,
		Timeframe:        r.Timeframe,
		Session:          r.Session,
		KillZone:         r.KillZone,
		DayOfWeek:        r.DayOfWeek,
		HourOfDay:        r.HourOfDay,
		TradeDate:        r.TradeDate,
		SetupType:        r.SetupType,
		Concept:          r.Concept,
		MarketStructure:  r.MarketStructure,
		HTFBias:          r.HTFBias,
		Outcome:          r.Outcome,
		PnlDollars:       r.PnlDollars,
		PnlPips:          r.PnlPips,
		RMultiple:        r.RMultiple,
		HoldingMinutes:   r.HoldingMinutes,
		EntryQuality:     r.EntryQuality,
		ExecutionQuality: r.ExecutionQuality,
		FollowedRules:    r.FollowedRules,
		ChecklistScore:   r.ChecklistScore,
		Notes:            r.Notes,
	}
	if t.TradeID == "" {
		t.TradeID = idhash.TradeID(t.UserID, t.StrategyID, t.Symbol, t.TradeDate)
	}
	return t
}

// CreateTrade ingests a single backtest trade.
func (h *Handler) CreateTrade(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := req.toDomain()
	if err := h.trades.Insert(c.Request.Context(), t); err != nil {
		h.storeError(c, err, "insert trade")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trade_id": t.TradeID})
}

// CreateTradesBulk ingests a batch of trades atomically.
func (h *Handler) CreateTradesBulk(c *gin.Context) {
	var reqs []tradeRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty batch"})
		return
	}

	batch := make([]*domain.BacktestTrade, 0, len(reqs))
	ids := make([]string, 0, len(reqs))
	for i := range reqs {
		t := reqs[i].toDomain()
		batch = append(batch, t)
		ids = append(ids, t.TradeID)
	}

	if err := h.trades.InsertBulk(c.Request.Context(), batch); err != nil {
		h.storeError(c, err, "insert trades bulk")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trade_ids": ids, "count": len(ids)})
}

// GetTrade fetches one trade by id.
func (h *Handler) GetTrade(c *gin.Context) {
	t, err := h.trades.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "get trade")
		return
	}
	c.JSON(http.StatusOK, t)
}

// Overview returns aggregate stats over every trade the user recorded.
func (h *Handler) Overview(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	start := time.Now()
	stats, err := h.facade.OverallStats(c.Request.Context(), userID)
	observability.RecordAnalyticsQuery("overview", time.Since(start).Seconds())
	if err != nil {
		h.storeError(c, err, "overall stats")
		return
	}
	observability.RecordTradesAnalyzed(stats.TotalTrades)

	c.JSON(http.StatusOK, stats)
}

// Symbols lists the distinct symbols the user has traded.
func (h *Handler) Symbols(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	symbols, err := h.facade.DistinctSymbols(c.Request.Context(), userID)
	if err != nil {
		h.storeError(c, err, "distinct symbols")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"symbols": symbols})
}

// StrategyStats returns aggregate stats for one strategy.
func (h *Handler) StrategyStats(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	start := time.Now()
	stats, err := h.facade.StrategyStats(c.Request.Context(), c.Param("strategyId"), userID)
	observability.RecordAnalyticsQuery("strategy_stats", time.Since(start).Seconds())
	if err != nil {
		h.storeError(c, err, "strategy stats")
		return
	}
	observability.RecordTradesAnalyzed(stats.TotalTrades)

	c.JSON(http.StatusOK, stats)
}

// DimensionStats returns one dimension's per-value breakdown for a strategy.
func (h *Handler) DimensionStats(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	dim := domain.Dimension(c.Param("dimension"))
	start := time.Now()
	breakdown, err := h.facade.StatsByDimension(c.Request.Context(), c.Param("strategyId"), userID, dim)
	observability.RecordAnalyticsQuery("dimension_stats", time.Since(start).Seconds())
	if err != nil {
		h.storeError(c, err, "dimension stats")
		return
	}
	if breakdown == nil {
		breakdown = []domain.DimensionStats{}
	}

	c.JSON(http.StatusOK, gin.H{"dimension": dim, "breakdown": breakdown})
}

// Matrix cross-tabulates two dimensions for a strategy.
func (h *Handler) Matrix(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	rowDim := domain.Dimension(c.Query("row"))
	colDim := domain.Dimension(c.Query("col"))

	start := time.Now()
	matrix, err := h.facade.PerformanceMatrix(c.Request.Context(), c.Param("strategyId"), userID, rowDim, colDim)
	observability.RecordAnalyticsQuery("matrix", time.Since(start).Seconds())
	if err != nil {
		h.storeError(c, err, "performance matrix")
		return
	}

	c.JSON(http.StatusOK, matrix)
}

// Analysis returns the full analysis bundle for a strategy.
func (h *Handler) Analysis(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	start := time.Now()
	bundle, err := h.facade.AnalysisData(c.Request.Context(), c.Param("strategyId"), userID)
	observability.RecordAnalyticsQuery("analysis", time.Since(start).Seconds())
	if err != nil {
		h.storeError(c, err, "analysis data")
		return
	}
	observability.RecordTradesAnalyzed(bundle.TradeCount)

	c.JSON(http.StatusOK, bundle)
}

// Patterns runs tag pattern discovery over the user's market logs.
func (h *Handler) Patterns(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	analysis, err := h.facade.AnalyzePatterns(c.Request.Context(), userID)
	if err != nil {
		h.storeError(c, err, "analyze patterns")
		return
	}
	observability.RecordPatternAnalysis(analysis.TotalLogs)

	c.JSON(http.StatusOK, analysis)
}

// logRequest is the ingestion shape of one market log. LogID is derived
// when absent; tags are normalized before storage.
type logRequest struct {
	LogID   string `json:"log_id"`
	UserID  string `json:"user_id" binding:"required"`
	Symbol  string `json:"symbol" binding:"required"`
	LogDate int64  `json:"log_date" binding:"required"`

	Timeframe string `json:"timeframe"`
	Session   string `json:"session"`
	TimeRange string `json:"time_range"`

	Tags        []string `json:"tags"`
	Observation string   `json:"observation"`

	MovementType string `json:"movement_type"`
	Sentiment    string `json:"sentiment"`
	Significance int    `json:"significance"`
	Screenshot   string `json:"screenshot"`
}

func (r *logRequest) toDomain() *domain.MarketLog {
	l := &domain.MarketLog{
		LogID:        r.LogID,
		UserID:       r.UserID,
		Symbol:       r.Symbol,
		LogDate:      r.LogDate,
		Timeframe:    r.Timeframe,
		Session:      r.Session,
		TimeRange:    r.TimeRange,
		Tags:         tags.NormalizeAll(r.Tags),
		Observation:  r.Observation,
		MovementType: r.MovementType,
		Sentiment:    r.Sentiment,
		Significance: r.Significance,
		Screenshot:   r.Screenshot,
	}
	if l.LogID == "" {
		l.LogID = idhash.LogID(l.UserID, l.Symbol, l.LogDate)
	}
	return l
}

// CreateLog ingests a market observation log.
func (h *Handler) CreateLog(c *gin.Context) {
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l := req.toDomain()
	if err := h.logs.Insert(c.Request.Context(), l); err != nil {
		h.storeError(c, err, "insert log")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"log_id": l.LogID})
}

// UpdateLog replaces an existing market log.
func (h *Handler) UpdateLog(c *gin.Context) {
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l := req.toDomain()
	l.LogID = c.Param("id")
	if err := h.logs.Update(c.Request.Context(), l); err != nil {
		h.storeError(c, err, "update log")
		return
	}

	c.JSON(http.StatusOK, gin.H{"log_id": l.LogID})
}

// DeleteLog removes a market log.
func (h *Handler) DeleteLog(c *gin.Context) {
	if err := h.logs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, err, "delete log")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLog fetches one market log by id.
func (h *Handler) GetLog(c *gin.Context) {
	l, err := h.logs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "get log")
		return
	}
	c.JSON(http.StatusOK, l)
}

// ListLogs fetches market logs by filter.
func (h *Handler) ListLogs(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	filter := storage.LogFilter{
		UserID:    userID,
		Symbol:    c.Query("symbol"),
		Session:   c.Query("session"),
		Timeframe: c.Query("timeframe"),
		Sentiment: c.Query("sentiment"),
		Tag:       c.Query("tag"),
		From:      queryInt64(c, "from"),
		To:        queryInt64(c, "to"),
	}

	logs, err := h.logs.GetByFilter(c.Request.Context(), filter)
	if err != nil {
		h.storeError(c, err, "list logs")
		return
	}
	if logs == nil {
		logs = []*domain.MarketLog{}
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// TagSuggestions returns autocomplete candidates for a prefix, drawing
// first from the user's own tag history.
func (h *Handler) TagSuggestions(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	logs, err := h.logs.GetByFilter(c.Request.Context(), storage.LogFilter{UserID: userID})
	if err != nil {
		h.storeError(c, err, "load tag history")
		return
	}

	var history []string
	for _, l := range logs {
		history = append(history, l.Tags...)
	}

	suggestions := tags.Suggestions(history, c.Query("prefix"))
	if suggestions == nil {
		suggestions = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// CommonTags returns the built-in tag vocabulary.
func (h *Handler) CommonTags(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tags": tags.CommonTags()})
}

// Candles serves chart candles through the read-through cache.
func (h *Handler) Candles(c *gin.Context) {
	symbol := c.Query("symbol")
	timeframe := c.Query("timeframe")
	start := queryInt64(c, "start")
	end := queryInt64(c, "end")

	if symbol == "" || timeframe == "" || end <= 0 || end < start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol, timeframe, start and end are required"})
		return
	}

	chart, err := h.cache.GetCandles(c.Request.Context(), symbol, timeframe, start, end)
	if err != nil {
		h.storeError(c, err, "get candles")
		return
	}
	if chart == nil {
		chart = []domain.ChartCandle{}
	}

	c.JSON(http.StatusOK, gin.H{"candles": chart, "count": len(chart)})
}

// requireUser extracts the mandatory user_id query parameter.
func (h *Handler) requireUser(c *gin.Context) (string, bool) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return "", false
	}
	return userID, true
}

func queryInt64(c *gin.Context, name string) int64 {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// storeError maps storage sentinels to HTTP statuses.
func (h *Handler) storeError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, storage.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, storage.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	default:
		h.log.WithError(err).Error("Request failed: " + op)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
