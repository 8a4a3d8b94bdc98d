package sim

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papertrade/sandbox-engine/internal/adapter/in_memory"
	"github.com/papertrade/sandbox-engine/internal/bot"
	"github.com/papertrade/sandbox-engine/internal/core"
	"github.com/papertrade/sandbox-engine/internal/domain"
)

func newTestMarket(t *testing.T) (*Market, *core.FakeClock) {
	t.Helper()
	clock := &core.FakeClock{Current: time.Unix(1_700_000_000, 0)}
	cfg := DefaultConfig()
	cfg.HistoryBackfill = 0
	m := NewMarket(
		cfg,
		core.EngineConfig{CommissionRate: decimal.NewFromFloat(0.001), InitialPrice: 100},
		bot.DefaultConfig(),
		clock,
		rand.New(rand.NewSource(11)),
		in_memory.NewCache(),
		nil,
	)
	return m, clock
}

func TestUserOrderFlowsIntoCandles(t *testing.T) {
	m, _ := newTestMarket(t)

	res := m.SubmitOrder(domain.Sell, domain.Limit, 50, 101, domain.GTC)
	require.Equal(t, domain.Pending, res.Status)

	res = m.SubmitOrder(domain.Buy, domain.Market, 50, 0, domain.GTC)
	require.Equal(t, domain.Filled, res.Status)
	require.Len(t, res.Trades, 1)

	candle := m.CurrentCandle()
	require.NotNil(t, candle)
	assert.Equal(t, 101.0, candle.Close)
	assert.Equal(t, 50.0, candle.Volume)
	assert.Equal(t, 101.0, m.LastPrice())
}

func TestTickRunsBotsAndAdvancesCandles(t *testing.T) {
	m, clock := newTestMarket(t)

	placed := m.Tick()
	assert.NotEmpty(t, placed, "first tick fires the bot swarm")

	snap := m.OrderBookSnapshot(0, "")
	assert.NotEmpty(t, snap.Asks)
	assert.NotEmpty(t, snap.Bids)

	clock.Advance(15 * time.Second)
	m.Tick()
	assert.NotEmpty(t, m.Candles())
}

func TestSnapshotExcludesBots(t *testing.T) {
	m, _ := newTestMarket(t)
	m.Tick()
	m.SubmitOrder(domain.Sell, domain.Limit, 25, 110, domain.GTC)

	snap := m.OrderBookSnapshot(50, domain.SourceBot)
	require.Len(t, snap.Asks, 1)
	assert.Equal(t, 110.0, snap.Asks[0].Price)
	assert.Equal(t, 25.0, snap.Asks[0].Quantity)
}

func TestCachedBookServesPublishedSnapshot(t *testing.T) {
	m, _ := newTestMarket(t)
	m.Tick()

	snap := m.CachedBook(context.Background())
	assert.NotEmpty(t, snap.Asks)
	assert.NotEmpty(t, snap.Bids)
	assert.Equal(t, m.LastPrice(), snap.LastPrice)
}

func TestCancelOrderRoundTrip(t *testing.T) {
	m, _ := newTestMarket(t)
	res := m.SubmitOrder(domain.Sell, domain.Limit, 10, 105, domain.GTC)
	require.Equal(t, domain.Pending, res.Status)

	assert.True(t, m.CancelOrder(res.OrderID))
	assert.False(t, m.CancelOrder(res.OrderID))
	snap := m.OrderBookSnapshot(0, "")
	assert.Empty(t, snap.Asks)
}

func TestTradeHandlerFires(t *testing.T) {
	m, _ := newTestMarket(t)

	var got []*domain.Trade
	m.SetHandlers(func(tr *domain.Trade) { got = append(got, tr) }, nil)

	m.SubmitOrder(domain.Sell, domain.Limit, 50, 101, domain.GTC)
	m.SubmitOrder(domain.Buy, domain.Market, 20, 0, domain.GTC)

	require.Len(t, got, 1)
	assert.Equal(t, 101.0, got[0].Price)
	assert.Equal(t, 20.0, got[0].Quantity)
}

func TestBotConfigUpdate(t *testing.T) {
	m, _ := newTestMarket(t)
	require.NoError(t, m.SetScenario(bot.ScenarioBull))

	intensity := 2.0
	m.UpdateBotConfig(bot.Overrides{Intensity: &intensity})
	cfg := m.BotConfig()
	assert.Equal(t, bot.ScenarioBull, cfg.Scenario)
	assert.Equal(t, 2.0, cfg.Intensity)
}

func TestStatsAfterBackfill(t *testing.T) {
	clock := &core.FakeClock{Current: time.Unix(1_700_000_000, 0)}
	cfg := DefaultConfig()
	cfg.HistoryBackfill = 2 * time.Hour
	m := NewMarket(
		cfg,
		core.EngineConfig{CommissionRate: decimal.Zero, InitialPrice: 100},
		bot.DefaultConfig(),
		clock,
		rand.New(rand.NewSource(11)),
		in_memory.NewCache(),
		nil,
	)

	assert.NotEmpty(t, m.Candles())
	stats := m.Stats()
	assert.Greater(t, stats.High, 0.0)
	assert.Greater(t, stats.Low, 0.0)
	assert.NotZero(t, m.PrevClose())
}
