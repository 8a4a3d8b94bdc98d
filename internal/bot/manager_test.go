package bot

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papertrade/sandbox-engine/internal/core"
	"github.com/papertrade/sandbox-engine/internal/domain"
)

type stubSub struct {
	e *core.MatchingEngine
}

func (s stubSub) Submit(side domain.Side, typ domain.OrderType, quantity, price float64, source domain.Source, cond domain.Condition) *domain.MatchResult {
	return s.e.SubmitOrder(side, typ, quantity, price, source, cond)
}
func (s stubSub) Cancel(id string) bool { return s.e.CancelOrder(id) }
func (s stubSub) LastPrice() float64    { return s.e.LastPrice() }
func (s stubSub) Book() *core.OrderBook { return s.e.Book() }

func newTestRig() (stubSub, *core.FakeClock) {
	clock := &core.FakeClock{Current: time.Unix(1_700_000_000, 0)}
	e := core.NewMatchingEngine(core.EngineConfig{
		CommissionRate: decimal.Zero,
		InitialPrice:   100,
	}, clock)
	return stubSub{e: e}, clock
}

func newTestManager(cfg Config, clock core.Clock) *Manager {
	return NewManager(cfg, clock, rand.New(rand.NewSource(7)), time.Second, nil)
}

func TestMarketMakerQuotesStraddlePrice(t *testing.T) {
	mm := NewMarketMaker(rand.New(rand.NewSource(1)))
	cfg := DefaultConfig().MarketMaker

	quotes := mm.Quotes(100, cfg, 1)
	require.Len(t, quotes, cfg.Depth*2)

	var bestBid, bestAsk float64
	for _, q := range quotes {
		require.Equal(t, domain.Limit, q.Type)
		if q.Side == domain.Buy {
			assert.Less(t, q.Price, 100.0)
			if q.Price > bestBid {
				bestBid = q.Price
			}
		} else {
			assert.Greater(t, q.Price, 100.0)
			if bestAsk == 0 || q.Price < bestAsk {
				bestAsk = q.Price
			}
		}
	}
	assert.Less(t, bestBid, bestAsk, "ladder must not cross itself")
}

func TestMarketMakerInventorySkew(t *testing.T) {
	cfg := DefaultConfig().MarketMaker
	cfg.SpreadPercent = 2 // wide enough that skew is not swallowed by tick rounding

	flat := NewMarketMaker(rand.New(rand.NewSource(1)))
	long := NewMarketMaker(rand.New(rand.NewSource(1)))
	long.RecordFill(domain.Buy, cfg.InventoryLimit) // fully long

	flatQuotes := flat.Quotes(100, cfg, 1)
	longQuotes := long.Quotes(100, cfg, 1)

	// long inventory pushes bids further from the market to slow buying
	assert.Less(t, longQuotes[0].Price, flatQuotes[0].Price)
	// and asks closer, to unload
	assert.Less(t, longQuotes[1].Price, flatQuotes[1].Price)
}

func TestTrendFollowsMomentum(t *testing.T) {
	cfg := DefaultConfig().Trend
	p := presetFor(ScenarioSideways)

	up := NewTrend(rand.New(rand.NewSource(1)))
	for i := 0; i < trendLongWin; i++ {
		up.Observe(100 + float64(i))
	}
	o := up.Order(cfg, p)
	require.NotNil(t, o)
	assert.Equal(t, domain.Buy, o.Side)
	assert.Equal(t, domain.Market, o.Type)

	down := NewTrend(rand.New(rand.NewSource(1)))
	for i := 0; i < trendLongWin; i++ {
		down.Observe(100 - float64(i))
	}
	o = down.Order(cfg, p)
	require.NotNil(t, o)
	assert.Equal(t, domain.Sell, o.Side)
}

func TestTrendStaysOutWithoutSignal(t *testing.T) {
	tr := NewTrend(rand.New(rand.NewSource(1)))
	for i := 0; i < trendLongWin; i++ {
		tr.Observe(100)
	}
	assert.Nil(t, tr.Order(DefaultConfig().Trend, presetFor(ScenarioSideways)))
}

func TestNoiseOrderShapes(t *testing.T) {
	n := NewNoise(rand.New(rand.NewSource(3)))

	cfg := DefaultConfig().Noise
	cfg.MarketOrderProbability = 1
	o := n.Order(100, cfg)
	require.NotNil(t, o)
	assert.Equal(t, domain.Market, o.Type)

	cfg.MarketOrderProbability = 0
	for i := 0; i < 20; i++ {
		o = n.Order(100, cfg)
		require.NotNil(t, o)
		assert.Equal(t, domain.Limit, o.Type)
		assert.GreaterOrEqual(t, o.Price, 99.4)
		assert.LessOrEqual(t, o.Price, 100.6)
	}
}

func TestOverridesApply(t *testing.T) {
	cfg := DefaultConfig()
	intensity := 2.5
	oddLot := true
	depth := 7
	delay := 3 * time.Second
	scenario := ScenarioBull

	Overrides{
		Scenario:      &scenario,
		Intensity:     &intensity,
		IsOddLot:      &oddLot,
		MMDepth:       &depth,
		ReactionDelay: &delay,
	}.Apply(&cfg)

	assert.Equal(t, ScenarioBull, cfg.Scenario)
	assert.Equal(t, 2.5, cfg.Intensity)
	assert.True(t, cfg.IsOddLot)
	assert.Equal(t, 7, cfg.MarketMaker.Depth)
	assert.Equal(t, 3*time.Second, cfg.ReactionDelay)
	// untouched fields keep defaults
	assert.Equal(t, DefaultConfig().Noise, cfg.Noise)
}

func TestScaleQtyLotModes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnitSize = 100
	cfg.Liquidity = 1
	clock := &core.FakeClock{Current: time.Unix(0, 0)}

	whole := newTestManager(cfg, clock)
	qty := whole.scaleQty(1.4, 1)
	assert.Equal(t, 100.0, qty, "whole-lot mode rounds to lot multiples")

	cfg.IsOddLot = true
	odd := newTestManager(cfg, clock)
	qty = odd.scaleQty(1.4, 1)
	assert.Equal(t, 140.0, qty, "odd-lot mode rounds to single shares")
	assert.Equal(t, 198.0, odd.scaleQty(1.4, 2), "sqrt(intensity) scales volume")
}

func TestFiresBurstMode(t *testing.T) {
	cfg := DefaultConfig()
	clock := &core.FakeClock{Current: time.Unix(100, 0)}
	m := newTestManager(cfg, clock)

	var last time.Time
	assert.Equal(t, 1, m.fires(&last, 3*time.Second, 1, clock.Now()), "due bot fires once")
	assert.Equal(t, 0, m.fires(&last, 3*time.Second, 1, clock.Now()), "not due again")

	// 300ms effective interval against a 1s tick period bursts
	var lastBurst time.Time
	assert.Equal(t, 3, m.fires(&lastBurst, 300*time.Millisecond, 1, clock.Now()))

	// intensity shortens the effective interval
	var lastIntense time.Time
	assert.Equal(t, 4, m.fires(&lastIntense, time.Second, 4, clock.Now()))
}

func TestManagerTickPopulatesBook(t *testing.T) {
	sub, clock := newTestRig()
	m := newTestManager(DefaultConfig(), clock)

	placed := m.Tick(sub)
	assert.NotEmpty(t, placed)
	assert.NotNil(t, sub.Book().BestBid())
	assert.NotNil(t, sub.Book().BestAsk())

	asks, bids := sub.Book().Snapshot(50, "")
	assert.NotEmpty(t, asks)
	assert.NotEmpty(t, bids)
}

func TestManagerRefreshCancelsOldQuotes(t *testing.T) {
	sub, clock := newTestRig()
	m := newTestManager(DefaultConfig(), clock)

	m.Tick(sub)
	old := m.mm.OpenQuotes()
	require.NotEmpty(t, old)

	clock.Advance(m.cfg.MarketMaker.RefreshInterval + time.Second)
	m.Tick(sub)
	for _, q := range old {
		assert.Nil(t, sub.Book().Order(q.ID), "old quote %s should be cancelled", q.ID)
	}
}

func TestMakerFillsMoveInventory(t *testing.T) {
	sub, clock := newTestRig()
	cfg := DefaultConfig()
	cfg.Trend.TradeInterval = 0 // only the maker trades, so fills are attributable
	cfg.Noise.TradeInterval = 0
	m := newTestManager(cfg, clock)

	m.Tick(sub)
	require.NotEmpty(t, m.mm.OpenQuotes())
	require.Zero(t, m.mm.Inventory())

	// a user market sell consumes the top of the maker's bid ladder
	res := sub.Submit(domain.Sell, domain.Market, 200, 0, domain.SourceUser, domain.GTC)
	require.Equal(t, 200.0, res.FilledQty)
	require.Zero(t, m.mm.Inventory(), "inventory moves at reconcile, not at fill time")

	clock.Advance(m.cfg.MarketMaker.RefreshInterval + time.Second)
	m.Tick(sub)
	assert.Equal(t, 200.0, m.mm.Inventory(), "bid-side fills accumulate long inventory")
}

func TestPrunedQuotesAreNotCountedAsFills(t *testing.T) {
	sub, clock := newTestRig()
	cfg := DefaultConfig()
	cfg.Trend.TradeInterval = 0
	cfg.Noise.TradeInterval = 0
	m := newTestManager(cfg, clock)

	m.Tick(sub)
	open := m.mm.OpenQuotes()
	require.NotEmpty(t, open)

	var ids []string
	for _, q := range open {
		ids = append(ids, q.ID)
		sub.Cancel(q.ID)
	}
	m.mm.ForgetQuotes(ids)

	clock.Advance(m.cfg.MarketMaker.RefreshInterval + time.Second)
	m.Tick(sub)
	assert.Zero(t, m.mm.Inventory(), "cancelled quotes must not register as fills")
}

func TestShieldProtectsFreshUserOrders(t *testing.T) {
	sub, clock := newTestRig()
	m := newTestManager(DefaultConfig(), clock)

	// a user ask resting at the top of the book, just placed
	res := sub.Submit(domain.Sell, domain.Limit, 100, 101, domain.SourceUser, domain.GTC)
	require.Equal(t, domain.Pending, res.Status)

	aggressive := Order{Side: domain.Buy, Type: domain.Market, Quantity: 10}
	assert.True(t, m.shielded(sub, aggressive, clock.Now()))

	crossing := Order{Side: domain.Buy, Type: domain.Limit, Price: 101, Quantity: 10}
	assert.True(t, m.shielded(sub, crossing, clock.Now()))

	passive := Order{Side: domain.Buy, Type: domain.Limit, Price: 100, Quantity: 10}
	assert.False(t, m.shielded(sub, passive, clock.Now()))

	// after the reaction window the shield lifts
	clock.Advance(m.cfg.ReactionDelay + time.Second)
	assert.False(t, m.shielded(sub, aggressive, clock.Now()))
}

func TestManagerPrunesDistantBotQuotes(t *testing.T) {
	sub, clock := newTestRig()
	cfg := DefaultConfig()
	m := newTestManager(cfg, clock)

	// a bot quote far below the market
	sub.Submit(domain.Buy, domain.Limit, 100, 80, domain.SourceBot, domain.GTC)
	require.Equal(t, 1, sub.Book().Len())

	clock.Advance(pruneInterval + time.Second)
	m.lastMM = clock.Now()
	m.lastTrend = clock.Now()
	m.lastNoise = clock.Now()
	m.Tick(sub)

	assert.Zero(t, len(sub.Book().OrdersBySource(domain.SourceBot)), "distant bot quote pruned")
}

func TestSetScenario(t *testing.T) {
	clock := &core.FakeClock{Current: time.Unix(0, 0)}
	m := newTestManager(DefaultConfig(), clock)

	require.NoError(t, m.SetScenario(ScenarioVolatile))
	assert.Equal(t, ScenarioVolatile, m.Config().Scenario)
	assert.Error(t, m.SetScenario("moon"))
}
