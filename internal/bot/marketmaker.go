package bot

import (
	"math"
	"math/rand"

	"github.com/papertrade/sandbox-engine/internal/core"
	"github.com/papertrade/sandbox-engine/internal/domain"
)

// MarketMaker keeps a two-sided ladder of quotes around the current price.
// It tracks its own inventory and skews quote placement against it so
// exposure mean-reverts instead of drifting one way.
type MarketMaker struct {
	rng       *rand.Rand
	inventory float64
	open      []OpenQuote
}

// OpenQuote tracks one resting ladder order between refreshes so fills
// against it can be reconciled into inventory.
type OpenQuote struct {
	ID       string
	Side     domain.Side
	Quantity float64
}

func NewMarketMaker(rng *rand.Rand) *MarketMaker {
	return &MarketMaker{rng: rng}
}

// Quotes builds a fresh ladder: depth levels per side, symmetric around
// price, widened by the volatility-scaled spread, sized up at deeper levels.
// Bid prices floor to the tick grid and ask prices ceil so the ladder never
// crosses itself.
func (m *MarketMaker) Quotes(price float64, cfg MarketMakerConfig, volatility float64) []Order {
	if price <= 0 || cfg.Depth <= 0 {
		return nil
	}

	halfSpread := price * cfg.SpreadPercent / 100 / 2 * (1 + volatility*0.5)
	if halfSpread < core.TickSize(price) {
		halfSpread = core.TickSize(price)
	}

	// Positive skew (long inventory) widens bids and tightens asks so the
	// book works the position back toward flat.
	var skew float64
	if cfg.InventoryLimit > 0 {
		skew = math.Max(-1, math.Min(1, m.inventory/cfg.InventoryLimit))
	}

	orders := make([]Order, 0, cfg.Depth*2)
	for i := 1; i <= cfg.Depth; i++ {
		offset := halfSpread * float64(i)
		size := m.randSize(cfg.SizeRange) * (1 + 0.5*float64(i-1))

		bid := core.FloorToTick(price - offset*(1+skew*0.5))
		ask := core.CeilToTick(price + offset*(1-skew*0.5))
		if ask <= bid {
			ask = core.CeilToTick(bid + core.TickSize(bid))
		}

		if bid > 0 {
			orders = append(orders, Order{Side: domain.Buy, Type: domain.Limit, Price: bid, Quantity: size, Bot: "marketMaker"})
		}
		orders = append(orders, Order{Side: domain.Sell, Type: domain.Limit, Price: ask, Quantity: size, Bot: "marketMaker"})
	}
	return orders
}

// RecordFill adjusts tracked inventory for a filled quote.
func (m *MarketMaker) RecordFill(side domain.Side, qty float64) {
	if side == domain.Buy {
		m.inventory += qty
	} else {
		m.inventory -= qty
	}
}

func (m *MarketMaker) Inventory() float64 { return m.inventory }

// OpenQuotes returns the resting ladder orders from the previous refresh.
func (m *MarketMaker) OpenQuotes() []OpenQuote { return m.open }

// SetOpenQuotes records the resting ladder after a refresh.
func (m *MarketMaker) SetOpenQuotes(quotes []OpenQuote) { m.open = quotes }

// ForgetQuotes drops tracked quotes that were cancelled externally, so they
// are not later mistaken for fills.
func (m *MarketMaker) ForgetQuotes(ids []string) {
	if len(ids) == 0 || len(m.open) == 0 {
		return
	}
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}
	kept := m.open[:0]
	for _, q := range m.open {
		if !doomed[q.ID] {
			kept = append(kept, q)
		}
	}
	m.open = kept
}

func (m *MarketMaker) randSize(r [2]float64) float64 {
	if r[1] <= r[0] {
		return r[0]
	}
	return r[0] + m.rng.Float64()*(r[1]-r[0])
}
