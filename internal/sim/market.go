package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/papertrade/sandbox-engine/internal/bot"
	"github.com/papertrade/sandbox-engine/internal/candle"
	"github.com/papertrade/sandbox-engine/internal/core"
	"github.com/papertrade/sandbox-engine/internal/domain"
	"github.com/papertrade/sandbox-engine/internal/port"
)

// Config parameterizes the simulation host.
type Config struct {
	Symbol        string
	SnapshotDepth int
	TickPeriod    time.Duration
	// HistoryBackfill synthesizes that much base-candle history at startup
	// so the chart is not empty on first render.
	HistoryBackfill time.Duration
}

func DefaultConfig() Config {
	return Config{
		Symbol:          "SANDBOX",
		SnapshotDepth:   20,
		TickPeriod:      time.Second,
		HistoryBackfill: 6 * time.Hour,
	}
}

// Market is the single-writer facade over the matching engine, the candle
// aggregator and the bot manager. All mutation serializes through its mutex;
// the book's invariants are not safe under concurrent writes.
type Market struct {
	mu      sync.Mutex
	cfg     Config
	log     *zap.Logger
	clock   core.Clock
	engine  *core.MatchingEngine
	candles *candle.Aggregator
	bots    *bot.Manager
	cache   port.Cache

	onTrade func(*domain.Trade)
	onBook  func(domain.BookSnapshot)
}

func NewMarket(cfg Config, engineCfg core.EngineConfig, botCfg bot.Config, clock core.Clock, rng *rand.Rand, cache port.Cache, log *zap.Logger) *Market {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Market{
		cfg:     cfg,
		log:     log,
		clock:   clock,
		engine:  core.NewMatchingEngine(engineCfg, clock),
		candles: candle.NewAggregator(clock, rng),
		bots:    bot.NewManager(botCfg, clock, rng, cfg.TickPeriod, log),
		cache:   cache,
	}
	if cfg.HistoryBackfill > 0 {
		m.candles.GenerateHistory(clock.Now().Add(-cfg.HistoryBackfill), engineCfg.InitialPrice)
	}
	return m
}

// SetHandlers installs stream callbacks. They are invoked while the engine
// lock is held, so they must only hand off to buffered channels.
func (m *Market) SetHandlers(onTrade func(*domain.Trade), onBook func(domain.BookSnapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTrade = onTrade
	m.onBook = onBook
}

func (m *Market) Symbol() string { return m.cfg.Symbol }

// gateway gives the bot manager engine access without re-entering the
// market lock (Tick already holds it).
type gateway struct{ m *Market }

func (g gateway) Submit(side domain.Side, typ domain.OrderType, quantity, price float64, source domain.Source, cond domain.Condition) *domain.MatchResult {
	return g.m.submit(side, typ, quantity, price, source, cond)
}
func (g gateway) Cancel(id string) bool { return g.m.engine.CancelOrder(id) }
func (g gateway) LastPrice() float64    { return g.m.engine.LastPrice() }
func (g gateway) Book() *core.OrderBook { return g.m.engine.Book() }

var _ bot.Submitter = gateway{}

// submit runs one order through the engine and folds its trades into the
// candle history. Callers must hold the lock.
func (m *Market) submit(side domain.Side, typ domain.OrderType, quantity, price float64, source domain.Source, cond domain.Condition) *domain.MatchResult {
	res := m.engine.SubmitOrder(side, typ, quantity, price, source, cond)
	for _, t := range res.Trades {
		m.candles.ProcessTrade(t)
		if m.onTrade != nil {
			m.onTrade(t)
		}
	}
	return res
}

// SubmitOrder is the user-order entry point.
func (m *Market) SubmitOrder(side domain.Side, typ domain.OrderType, quantity, price float64, cond domain.Condition) *domain.MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.submit(side, typ, quantity, price, domain.SourceUser, cond)
	m.publish()
	return res
}

// CancelOrder cancels a resting order; false for unknown ids.
func (m *Market) CancelOrder(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.engine.CancelOrder(id)
	if ok {
		m.publish()
	}
	return ok
}

// Tick runs one simulation cycle: bots fire in their fixed sequence, the
// candle clock advances, and the fresh snapshot is published.
func (m *Market) Tick() []bot.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	placed := m.bots.Tick(gateway{m})
	m.candles.Tick(m.engine.LastPrice())
	m.publish()
	return placed
}

// publish pushes the current snapshot to the cache and the book stream.
// Callers must hold the lock.
func (m *Market) publish() {
	snap := m.engine.Snapshot(m.cfg.SnapshotDepth, "")
	if m.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		if err := m.cache.SetBook(ctx, m.cfg.Symbol, &snap); err != nil {
			m.log.Warn("snapshot cache publish failed", zap.Error(err))
		}
		cancel()
	}
	if m.onBook != nil {
		m.onBook(snap)
	}
}

// OrderBookSnapshot returns a live depth-limited view.
func (m *Market) OrderBookSnapshot(depth int, exclude domain.Source) domain.BookSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if depth <= 0 {
		depth = m.cfg.SnapshotDepth
	}
	return m.engine.Snapshot(depth, exclude)
}

// CachedBook serves the last published snapshot, falling back to a live
// read when the cache has nothing.
func (m *Market) CachedBook(ctx context.Context) domain.BookSnapshot {
	if m.cache != nil {
		if snap, err := m.cache.GetBook(ctx, m.cfg.Symbol); err == nil && snap != nil {
			return *snap
		}
	}
	return m.OrderBookSnapshot(m.cfg.SnapshotDepth, "")
}

func (m *Market) RecentTrades(limit int) []*domain.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.RecentTrades(limit)
}

func (m *Market) LastPrice() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.LastPrice()
}

func (m *Market) Candles() []domain.Candle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candles.AllCandles()
}

func (m *Market) CurrentCandle() *domain.Candle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candles.CurrentCandle()
}

func (m *Market) Stats() domain.MarketStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candles.Stats()
}

func (m *Market) PrevClose() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candles.PrevClose()
}

func (m *Market) SetPeriod(periodMillis int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candles.SetPeriod(periodMillis)
}

func (m *Market) SetScenario(s bot.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bots.SetScenario(s)
}

func (m *Market) UpdateBotConfig(o bot.Overrides) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bots.UpdateConfig(o)
}

func (m *Market) BotConfig() bot.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bots.Config()
}
