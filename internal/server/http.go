// Package server exposes the replay core over HTTP for the frontend:
// run replays, page through reconstructed day states, project forecasts,
// render charts.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"dcatool/internal/forecast"
	"dcatool/internal/market"
	"dcatool/internal/params"
	"dcatool/internal/replay"
	"dcatool/internal/report"
	"dcatool/internal/source"
	"dcatool/internal/store"
)

type HTTPServer struct {
	addr     string
	svc      *Service
	store    *store.Store
	registry *params.Registry
	sources  *source.Provider
	router   *gin.Engine
}

type HTTPConfig struct {
	Addr     string
	Service  *Service
	Store    *store.Store
	Registry *params.Registry
	Sources  *source.Provider
}

func NewHTTPServer(cfg HTTPConfig) (*HTTPServer, error) {
	if cfg.Service == nil {
		return nil, errors.New("service is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &HTTPServer{
		addr:     cfg.Addr,
		svc:      cfg.Service,
		store:    cfg.Store,
		registry: cfg.Registry,
		sources:  cfg.Sources,
		router:   router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *HTTPServer) registerRoutes() {
	api := s.router.Group("/api")
	api.POST("/replay/runs", s.handleRunStart)
	api.POST("/replay/batch", s.handleBatch)
	api.GET("/replay/runs", s.handleRunList)
	api.GET("/replay/runs/:id", s.handleRunDetail)
	api.GET("/replay/runs/:id/days", s.handleRunDays)
	api.GET("/replay/runs/:id/transactions", s.handleRunTransactions)
	api.GET("/replay/runs/:id/chart", s.handleRunChart)
	api.GET("/replay/runs/:id/chart.png", s.handleRunChartPNG)
	api.POST("/forecast", s.handleForecast)
	api.GET("/params/presets", s.handlePresets)
	api.GET("/market/bars", s.handleMarketBars)
}

// Run starts serving and blocks.
func (s *HTTPServer) Run() error {
	return s.router.Run(s.addr)
}

// Router exposes the gin engine, for tests.
func (s *HTTPServer) Router() *gin.Engine { return s.router }

func (s *HTTPServer) handleRunStart(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body required"})
		return
	}
	out, err := s.svc.Run(c.Request.Context(), string(raw), c.Query("preset"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *HTTPServer) handleBatch(c *gin.Context) {
	var req struct {
		Preset string            `json:"preset"`
		Items  []json.RawMessage `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raws := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		raws = append(raws, string(item))
	}
	outs, err := s.svc.RunBatch(c.Request.Context(), raws, req.Preset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"runs": outs})
}

func (s *HTTPServer) handleRunList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *HTTPServer) handleRunDetail(c *gin.Context) {
	run, err := s.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *HTTPServer) handleRunDays(c *gin.Context) {
	days, err := s.store.DayStates(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

func (s *HTTPServer) handleRunTransactions(c *gin.Context) {
	txs, err := s.store.Transactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (s *HTTPServer) runReport(c *gin.Context) ([]byte, bool) {
	id := c.Param("id")
	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	models, err := s.store.DayStates(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	days := make([]replay.DayState, 0, len(models))
	for _, m := range models {
		days = append(days, dayStateFromModel(m))
	}
	html, err := report.RenderHTML(run.Symbol, days)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return html, true
}

func (s *HTTPServer) handleRunChart(c *gin.Context) {
	html, ok := s.runReport(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *HTTPServer) handleRunChartPNG(c *gin.Context) {
	html, ok := s.runReport(c)
	if !ok {
		return
	}
	png, err := report.SnapshotPNG(c.Request.Context(), html, 1440, 1400)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": fmt.Sprintf("snapshot unavailable: %v", err)})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

type forecastRequest struct {
	CurrentPrice      float64             `json:"current_price" binding:"required"`
	Preset            string              `json:"preset"`
	Params            *params.Strategy    `json:"params"`
	Orders            forecast.OrderState `json:"orders"`
	OpenPositionCount int                 `json:"open_position_count"`
	RecentBars        []market.PriceBar   `json:"recent_bars"`
	ExtremeWindow     int                 `json:"extreme_window"`
}

func (s *HTTPServer) handleForecast(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	strategy, err := s.forecastStrategy(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	orders := req.Orders
	// Derive window extremes only when the engine supplied none.
	if orders.RecentPeak <= 0 && orders.RecentBottom <= 0 && len(req.RecentBars) > 0 {
		orders.RecentPeak, orders.RecentBottom = forecast.WindowExtremes(req.RecentBars, req.ExtremeWindow)
	}
	entry, exit := forecast.Project(forecast.Input{
		CurrentPrice:      req.CurrentPrice,
		Params:            strategy,
		Orders:            orders,
		OpenPositionCount: req.OpenPositionCount,
	})
	c.JSON(http.StatusOK, gin.H{"entry": entry, "exit": exit})
}

func (s *HTTPServer) forecastStrategy(req forecastRequest) (params.Strategy, error) {
	if req.Preset != "" {
		strategy, ok := s.registry.Preset(req.Preset)
		if !ok {
			return params.Strategy{}, fmt.Errorf("unknown preset %q", req.Preset)
		}
		return strategy, nil
	}
	if req.Params == nil {
		return params.Strategy{}, fmt.Errorf("either preset or params is required")
	}
	return req.Params.Normalized()
}

func (s *HTTPServer) handleMarketBars(c *gin.Context) {
	if s.sources == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no price sources configured"})
		return
	}
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "365"))
	bars, err := s.sources.DailyBars(c.Request.Context(), c.Query("source"), symbol, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "bars": bars})
}

func (s *HTTPServer) handlePresets(c *gin.Context) {
	snap := s.registry.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"version": snap.Version,
		"presets": snap.Presets,
	})
}

func dayStateFromModel(m store.DayStateModel) replay.DayState {
	return replay.DayState{
		Date:                m.Date,
		StockPrice:          m.StockPrice,
		TotalPNL:            m.TotalPNL,
		TotalPNLPercent:     m.TotalPNLPercent,
		CapitalDeployed:     m.CapitalDeployed,
		MaxCapitalDeployed:  m.MaxCapitalDeployed,
		HoldingsValue:       m.HoldingsValue,
		RealizedPNL:         m.RealizedPNL,
		BreakEvenValue:      m.BreakEvenValue,
		LotsDeployedPercent: m.LotsDeployedPercent,
		BuyAndHoldPercent:   m.BuyAndHoldPercent,
		OpenPositionCount:   m.OpenPositionCount,
		HasBuy:              m.HasBuy,
		HasSell:             m.HasSell,
	}
}
