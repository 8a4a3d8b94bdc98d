package bot

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/papertrade/sandbox-engine/internal/core"
	"github.com/papertrade/sandbox-engine/internal/domain"
)

const (
	pruneInterval  = 5 * time.Second
	pruneThreshold = 0.10
)

// Manager orchestrates the three agents each tick in a fixed sequence
// (market maker, trend, noise), applies scenario presets and intensity
// scaling, shields fresh user orders from instant adversarial fills, and
// prunes stale bot quotes away from the market.
type Manager struct {
	cfg        Config
	clock      core.Clock
	log        *zap.Logger
	tickPeriod time.Duration

	mm    *MarketMaker
	trend *Trend
	noise *Noise

	lastMM    time.Time
	lastTrend time.Time
	lastNoise time.Time
	lastPrune time.Time
}

func NewManager(cfg Config, clock core.Clock, rng *rand.Rand, tickPeriod time.Duration, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:        cfg,
		clock:      clock,
		log:        log,
		tickPeriod: tickPeriod,
		mm:         NewMarketMaker(rng),
		trend:      NewTrend(rng),
		noise:      NewNoise(rng),
	}
}

func (m *Manager) Config() Config { return m.cfg }

// SetScenario switches the active regime preset.
func (m *Manager) SetScenario(s Scenario) error {
	if !ValidScenario(s) {
		return fmt.Errorf("unknown scenario %q", s)
	}
	m.cfg.Scenario = s
	return nil
}

// UpdateConfig applies a partial configuration.
func (m *Manager) UpdateConfig(o Overrides) {
	o.Apply(&m.cfg)
}

// Tick runs one bot cycle against the engine and returns the candidate
// orders that were submitted. Bots whose effective interval is shorter than
// the external tick period fire multiple times within the tick (burst mode).
func (m *Manager) Tick(sub Submitter) []Order {
	now := m.clock.Now()
	price := sub.LastPrice()
	p := presetFor(m.cfg.Scenario)
	intensity := m.cfg.Intensity * p.Intensity
	volatility := m.cfg.Volatility * p.Volatility

	var placed []Order

	for n := m.fires(&m.lastMM, m.cfg.MarketMaker.RefreshInterval, intensity, now); n > 0; n-- {
		placed = append(placed, m.refreshQuotes(sub, price, volatility, intensity, now)...)
	}

	m.trend.Observe(price)
	for n := m.fires(&m.lastTrend, m.cfg.Trend.TradeInterval, intensity, now); n > 0; n-- {
		if o := m.trend.Order(m.cfg.Trend, p); o != nil {
			if submitted := m.place(sub, *o, intensity, now); submitted != nil {
				placed = append(placed, *submitted)
			}
		}
	}

	for n := m.fires(&m.lastNoise, m.cfg.Noise.TradeInterval, intensity, now); n > 0; n-- {
		if o := m.noise.Order(price, m.cfg.Noise); o != nil {
			if submitted := m.place(sub, *o, intensity, now); submitted != nil {
				placed = append(placed, *submitted)
			}
		}
	}

	if now.Sub(m.lastPrune) >= pruneInterval {
		m.lastPrune = now
		if ids := sub.Book().PruneDistant(price, pruneThreshold, domain.SourceBot); len(ids) > 0 {
			m.mm.ForgetQuotes(ids)
			m.log.Debug("pruned stale bot quotes", zap.Int("count", len(ids)), zap.Float64("reference", price))
		}
	}

	return placed
}

// refreshQuotes reconciles and cancels the previous ladder, then posts a
// fresh one. Immediate fills on submission count into inventory right away;
// fills against resting quotes are picked up by the reconcile pass.
func (m *Manager) refreshQuotes(sub Submitter, price, volatility, intensity float64, now time.Time) []Order {
	m.reconcileQuotes(sub)

	var placed []Order
	var resting []OpenQuote
	for _, q := range m.mm.Quotes(price, m.cfg.MarketMaker, volatility) {
		q.Quantity = m.scaleQty(q.Quantity, intensity)
		if q.Quantity <= 0 || m.shielded(sub, q, now) {
			continue
		}
		res := sub.Submit(q.Side, q.Type, q.Quantity, q.Price, domain.SourceBot, domain.GTC)
		placed = append(placed, q)
		if res.FilledQty > 0 {
			m.mm.RecordFill(q.Side, res.FilledQty)
		}
		if res.Status == domain.Pending || res.Status == domain.PartiallyFilled {
			resting = append(resting, OpenQuote{ID: res.OrderID, Side: q.Side, Quantity: res.RemainingQty})
		}
	}
	m.mm.SetOpenQuotes(resting)
	return placed
}

// reconcileQuotes folds fills on the previous ladder into tracked inventory
// and cancels whatever is still resting. A tracked quote missing from the
// book was consumed entirely.
func (m *Manager) reconcileQuotes(sub Submitter) {
	for _, q := range m.mm.OpenQuotes() {
		filled := q.Quantity
		if rest := sub.Book().Order(q.ID); rest != nil {
			filled = q.Quantity - rest.Remaining
			sub.Cancel(q.ID)
		}
		if filled > 0 {
			m.mm.RecordFill(q.Side, filled)
		}
	}
	m.mm.SetOpenQuotes(nil)
}

func (m *Manager) place(sub Submitter, o Order, intensity float64, now time.Time) *Order {
	o.Quantity = m.scaleQty(o.Quantity, intensity)
	if o.Quantity <= 0 || m.shielded(sub, o, now) {
		return nil
	}
	sub.Submit(o.Side, o.Type, o.Quantity, o.Price, domain.SourceBot, domain.GTC)
	return &o
}

// shielded reports whether the order would immediately trade against a user
// order placed within the reaction-delay window. Such orders are held back
// until the window passes.
func (m *Manager) shielded(sub Submitter, o Order, now time.Time) bool {
	var level *core.PriceLevel
	if o.Side == domain.Buy {
		level = sub.Book().BestAsk()
	} else {
		level = sub.Book().BestBid()
	}
	if level == nil || len(level.Orders) == 0 {
		return false
	}
	head := level.Orders[0]
	if head.Source != domain.SourceUser || now.Sub(head.CreatedAt) >= m.cfg.ReactionDelay {
		return false
	}
	if o.Type == domain.Market {
		return true
	}
	if o.Side == domain.Buy {
		return o.Price >= level.Price
	}
	return o.Price <= level.Price
}

// fires computes the burst count for one bot: 0 when the bot is not yet due,
// otherwise at least 1, and tickPeriod/effective when the effective interval
// is shorter than the external tick period.
func (m *Manager) fires(last *time.Time, base time.Duration, intensity float64, now time.Time) int {
	if base <= 0 {
		return 0
	}
	eff := time.Duration(float64(base) / math.Max(intensity, 0.1))
	if eff < time.Millisecond {
		eff = time.Millisecond
	}
	if now.Sub(*last) < eff {
		return 0
	}
	*last = now
	if eff < m.tickPeriod {
		return int(m.tickPeriod / eff)
	}
	return 1
}

// scaleQty converts a bot's abstract size into shares: lot unit times the
// sqrt(intensity) volume multiplier times the liquidity factor, rounded to
// the minimum tradable unit.
func (m *Manager) scaleQty(q, intensity float64) float64 {
	shares := q * m.cfg.UnitSize * math.Sqrt(math.Max(intensity, 0.01)) * math.Max(m.cfg.Liquidity, 0.1)
	if m.cfg.IsOddLot {
		return math.Max(1, math.Round(shares))
	}
	lots := math.Max(1, math.Round(shares/m.cfg.UnitSize))
	return lots * m.cfg.UnitSize
}
