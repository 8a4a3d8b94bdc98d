package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/papertrade/sandbox-engine/internal/api/dto"
	"github.com/papertrade/sandbox-engine/internal/api/ws"
	"github.com/papertrade/sandbox-engine/internal/bot"
	"github.com/papertrade/sandbox-engine/internal/domain"
	"github.com/papertrade/sandbox-engine/internal/middleware"
	"github.com/papertrade/sandbox-engine/internal/sim"
)

// Server exposes the sandbox engine to the browser UI over REST plus one
// websocket stream.
type Server struct {
	market *sim.Market
	hub    *ws.Hub
	log    *zap.Logger
}

func NewServer(market *sim.Market, hub *ws.Hub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{market: market, hub: hub, log: log}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	rl := middleware.NewRateLimiter()
	orderLimit := rl.Limit(100 * time.Millisecond)
	controlLimit := rl.Limit(500 * time.Millisecond)

	r.POST("/orders", orderLimit, s.submitOrder)
	r.POST("/orders/cancel", orderLimit, s.cancelOrder)

	r.GET("/orderbook", s.getOrderbook)
	r.GET("/trades", s.getTrades)
	r.GET("/price", s.getPrice)
	r.GET("/candles", s.getCandles)
	r.GET("/candles/current", s.getCurrentCandle)
	r.GET("/stats", s.getStats)
	r.POST("/candles/period", controlLimit, s.setPeriod)
	r.POST("/scenario", controlLimit, s.setScenario)
	r.POST("/config", controlLimit, s.updateConfig)

	r.GET("/ws/stream", gin.WrapH(s.hub))

	return r
}

func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if domain.OrderType(req.Type) == domain.Limit && req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit orders require a positive price"})
		return
	}

	res := s.market.SubmitOrder(
		domain.Side(req.Side),
		domain.OrderType(req.Type),
		req.Quantity,
		req.Price,
		domain.Condition(req.Condition),
	)
	c.JSON(http.StatusOK, dto.ConvertResult(res))
}

func (s *Server) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok := s.market.CancelOrder(req.OrderID)
	c.JSON(http.StatusOK, dto.CancelOrderResponse{OrderID: req.OrderID, Cancelled: ok})
}

func (s *Server) getOrderbook(c *gin.Context) {
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "0"))
	exclude := domain.Source(c.Query("excludeSource"))

	// the default view is served from the published snapshot cache
	if depth == 0 && exclude == "" {
		c.JSON(http.StatusOK, s.market.CachedBook(c.Request.Context()))
		return
	}
	c.JSON(http.StatusOK, s.market.OrderBookSnapshot(depth, exclude))
}

func (s *Server) getTrades(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	c.JSON(http.StatusOK, gin.H{"trades": dto.ConvertTrades(s.market.RecentTrades(limit))})
}

func (s *Server) getPrice(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"price": s.market.LastPrice()})
}

func (s *Server) getCandles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"candles": s.market.Candles()})
}

func (s *Server) getCurrentCandle(c *gin.Context) {
	candle := s.market.CurrentCandle()
	if candle == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no candle data yet"})
		return
	}
	c.JSON(http.StatusOK, candle)
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":     s.market.Stats(),
		"prevClose": s.market.PrevClose(),
	})
}

func (s *Server) setPeriod(c *gin.Context) {
	var req dto.SetPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.market.SetPeriod(req.PeriodMs)
	c.JSON(http.StatusOK, gin.H{"periodMs": req.PeriodMs})
}

func (s *Server) setScenario(c *gin.Context) {
	var req dto.ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.market.SetScenario(bot.Scenario(req.Scenario)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenario": req.Scenario})
}

func (s *Server) updateConfig(c *gin.Context) {
	var req dto.ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.market.UpdateBotConfig(req.Overrides())
	c.JSON(http.StatusOK, gin.H{"config": s.market.BotConfig()})
}
