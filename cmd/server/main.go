package main

import (
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/papertrade/sandbox-engine/internal/adapter/cache"
	"github.com/papertrade/sandbox-engine/internal/adapter/in_memory"
	httpapi "github.com/papertrade/sandbox-engine/internal/api/http"
	"github.com/papertrade/sandbox-engine/internal/api/ws"
	"github.com/papertrade/sandbox-engine/internal/bot"
	"github.com/papertrade/sandbox-engine/internal/config"
	"github.com/papertrade/sandbox-engine/internal/core"
	"github.com/papertrade/sandbox-engine/internal/domain"
	"github.com/papertrade/sandbox-engine/internal/port"
	"github.com/papertrade/sandbox-engine/internal/sim"
)

func main() {
	cfg := config.Load("")

	log, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	clock := core.RealClock{}

	var snapCache port.Cache
	if cfg.RedisAddr != "" {
		snapCache = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, 5*time.Minute)
		log.Info("using redis snapshot cache", zap.String("addr", cfg.RedisAddr))
	} else {
		snapCache = in_memory.NewCache()
	}

	botCfg := bot.DefaultConfig()
	botCfg.Scenario = bot.Scenario(cfg.Scenario)

	market := sim.NewMarket(
		sim.Config{
			Symbol:          cfg.Symbol,
			SnapshotDepth:   cfg.SnapshotDepth,
			TickPeriod:      cfg.TickPeriod,
			HistoryBackfill: cfg.HistoryBackfill,
		},
		core.EngineConfig{
			CommissionRate: decimal.NewFromFloat(cfg.CommissionRate),
			InitialPrice:   cfg.InitialPrice,
		},
		botCfg,
		clock,
		rng,
		snapCache,
		log,
	)

	hub := ws.NewHub(log)
	market.SetHandlers(
		func(t *domain.Trade) { hub.Broadcast("trade", t) },
		func(snap domain.BookSnapshot) { hub.Broadcast("book", snap) },
	)

	stop := make(chan struct{})
	go runTicker(market, hub, cfg.TickPeriod, stop, log)

	server := httpapi.NewServer(market, hub, log)
	log.Info("starting sandbox server",
		zap.String("addr", cfg.Addr),
		zap.String("symbol", cfg.Symbol),
		zap.Int64("seed", seed),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(cfg.Addr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Fatal("server failed", zap.Error(err))
	case sig := <-sigCh:
		close(stop)
		log.Info("shutting down", zap.String("signal", sig.String()))
	}
}

// runTicker is the external periodic driver: every tick it runs one bot
// cycle, advances the candle clock and pushes the fresh candle downstream.
func runTicker(market *sim.Market, hub *ws.Hub, period time.Duration, stop <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			placed := market.Tick()
			if len(placed) > 0 {
				log.Debug("bot cycle", zap.Int("orders", len(placed)))
			}
			if candle := market.CurrentCandle(); candle != nil {
				hub.Broadcast("candle", candle)
			}
		}
	}
}

func newLogger() (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logCfg.EncoderConfig.TimeKey = "ts"
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return logCfg.Build()
}
