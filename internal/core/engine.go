package core

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/papertrade/sandbox-engine/internal/domain"
)

// EngineConfig parameterizes the matching engine.
type EngineConfig struct {
	// CommissionRate is charged on matched notional, e.g. 0.001 for 10bps.
	CommissionRate decimal.Decimal
	// InitialPrice seeds the last-traded price so market orders can be
	// referenced before any trade has printed.
	InitialPrice float64
	// TradeHistoryCap bounds the retained trade log; oldest entries drop.
	TradeHistoryCap int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CommissionRate:  decimal.NewFromFloat(0.0005),
		InitialPrice:    100,
		TradeHistoryCap: 1000,
	}
}

// MatchingEngine executes submissions against the order book with
// price-time priority and produces one MatchResult per submission.
// Not safe for concurrent use; callers serialize through sim.Market.
type MatchingEngine struct {
	book      *OrderBook
	cfg       EngineConfig
	clock     Clock
	trades    []*domain.Trade
	lastPrice float64
}

func NewMatchingEngine(cfg EngineConfig, clock Clock) *MatchingEngine {
	if cfg.TradeHistoryCap <= 0 {
		cfg.TradeHistoryCap = 1000
	}
	return &MatchingEngine{
		book:      NewOrderBook(),
		cfg:       cfg,
		clock:     clock,
		lastPrice: RoundToTick(cfg.InitialPrice),
	}
}

// Book exposes the underlying order book for snapshot and pruning callers.
func (e *MatchingEngine) Book() *OrderBook { return e.book }

// LastPrice returns the last traded price (initial price before any trade).
func (e *MatchingEngine) LastPrice() float64 { return e.lastPrice }

// SubmitOrder runs the full matching algorithm for one order. price is
// ignored for market orders. A non-positive quantity is a no-op returning a
// cancelled result.
func (e *MatchingEngine) SubmitOrder(side domain.Side, typ domain.OrderType, quantity, price float64, source domain.Source, cond domain.Condition) *domain.MatchResult {
	if quantity <= 0 {
		return &domain.MatchResult{Status: domain.Cancelled}
	}
	if cond == "" {
		cond = domain.GTC
	}

	now := e.clock.Now()
	limit := 0.0
	if typ == domain.Limit {
		limit = RoundToTick(price)
	}

	// Reference price for market-order bookkeeping: opposing best quote,
	// falling back to the last trade.
	bookPrice := limit
	if typ == domain.Market {
		bookPrice = e.referencePrice(side)
	}

	order := &domain.Order{
		ID:        uuid.NewString(),
		Side:      side,
		Type:      typ,
		Price:     bookPrice,
		Quantity:  quantity,
		Remaining: quantity,
		Source:    source,
		Condition: cond,
		CreatedAt: now,
	}

	result := &domain.MatchResult{OrderID: order.ID, RemainingQty: quantity}

	// FOK fills entirely or not at all, checked before touching the book.
	if cond == domain.FOK && e.book.LiquidityWithin(side, limit) < quantity {
		result.Status = domain.Cancelled
		return result
	}

	notional := decimal.Zero
	for order.Remaining > 0 {
		level := e.opposingBest(side)
		if level == nil {
			break
		}
		if typ == domain.Limit {
			if side == domain.Buy && level.Price > limit {
				break
			}
			if side == domain.Sell && level.Price < limit {
				break
			}
		}

		maker := level.Orders[0]
		qty := math.Min(order.Remaining, maker.Remaining)
		trade := e.printTrade(order, maker, qty, now)
		result.Trades = append(result.Trades, trade)

		order.Remaining -= qty
		e.book.UpdateOrderQuantity(maker.ID, qty)
		e.lastPrice = trade.Price
		notional = notional.Add(decimal.NewFromFloat(trade.Price).Mul(decimal.NewFromFloat(qty)))
	}

	filled := quantity - order.Remaining
	result.FilledQty = filled
	result.RemainingQty = order.Remaining
	result.Status = e.settle(order, cond, typ, filled)
	e.price(result, notional, filled)
	return result
}

// settle decides the post-walk status and rests the remainder when GTC.
func (e *MatchingEngine) settle(order *domain.Order, cond domain.Condition, typ domain.OrderType, filled float64) domain.OrderStatus {
	switch {
	case order.Remaining <= 0:
		return domain.Filled
	case cond != domain.GTC:
		// IOC and post-walk FOK discard the remainder.
		return domain.Cancelled
	}

	// A partially filled market order rests as a limit pinned at the last
	// trade price; an unfilled one rests at its reference price.
	if typ == domain.Market {
		order.Type = domain.Limit
		if filled > 0 {
			order.Price = RoundToTick(e.lastPrice)
		}
	}
	e.book.AddOrder(order)
	if filled > 0 {
		return domain.PartiallyFilled
	}
	return domain.Pending
}

func (e *MatchingEngine) price(result *domain.MatchResult, notional decimal.Decimal, filled float64) {
	if filled <= 0 {
		return
	}
	cost := notional.Round(2)
	result.TotalCost = cost.InexactFloat64()
	result.AveragePrice = notional.Div(decimal.NewFromFloat(filled)).Round(2).InexactFloat64()
	result.Commission = notional.Mul(e.cfg.CommissionRate).Round(2).InexactFloat64()
}

func (e *MatchingEngine) printTrade(taker, maker *domain.Order, qty float64, now time.Time) *domain.Trade {
	trade := &domain.Trade{
		ID:          uuid.NewString(),
		Price:       maker.Price,
		Quantity:    qty,
		TakerSide:   taker.Side,
		MakerSource: maker.Source,
		TakerSource: taker.Source,
		Timestamp:   now,
	}
	if taker.Side == domain.Buy {
		trade.BuyOrderID, trade.SellOrderID = taker.ID, maker.ID
	} else {
		trade.BuyOrderID, trade.SellOrderID = maker.ID, taker.ID
	}
	e.trades = append(e.trades, trade)
	if len(e.trades) > e.cfg.TradeHistoryCap {
		e.trades = e.trades[len(e.trades)-e.cfg.TradeHistoryCap:]
	}
	return trade
}

func (e *MatchingEngine) opposingBest(side domain.Side) *PriceLevel {
	if side == domain.Buy {
		return e.book.BestAsk()
	}
	return e.book.BestBid()
}

func (e *MatchingEngine) referencePrice(side domain.Side) float64 {
	if level := e.opposingBest(side); level != nil {
		return level.Price
	}
	return e.lastPrice
}

// CancelOrder removes a resting order. Unknown or already filled ids return
// false without error.
func (e *MatchingEngine) CancelOrder(id string) bool {
	return e.book.CancelOrder(id)
}

// CancelOrdersBySource cancels every resting order from one source and
// returns how many were removed.
func (e *MatchingEngine) CancelOrdersBySource(source domain.Source) int {
	ids := e.book.OrdersBySource(source)
	for _, id := range ids {
		e.book.CancelOrder(id)
	}
	return len(ids)
}

// RecentTrades returns up to limit trades, newest first.
func (e *MatchingEngine) RecentTrades(limit int) []*domain.Trade {
	if limit <= 0 || limit > len(e.trades) {
		limit = len(e.trades)
	}
	out := make([]*domain.Trade, 0, limit)
	for i := len(e.trades) - 1; i >= len(e.trades)-limit; i-- {
		out = append(out, e.trades[i])
	}
	return out
}

// Snapshot builds a depth-limited view of the book with orders from exclude
// filtered out.
func (e *MatchingEngine) Snapshot(depth int, exclude domain.Source) domain.BookSnapshot {
	asks, bids := e.book.Snapshot(depth, exclude)
	snap := domain.BookSnapshot{
		Asks:      asks,
		Bids:      bids,
		LastPrice: e.lastPrice,
		Timestamp: e.clock.Now(),
	}
	if level := e.book.BestAsk(); level != nil {
		snap.BestAsk = level.Price
	}
	if level := e.book.BestBid(); level != nil {
		snap.BestBid = level.Price
	}
	if snap.BestAsk > 0 && snap.BestBid > 0 {
		snap.Spread = clamp(snap.BestAsk - snap.BestBid)
	}
	return snap
}
