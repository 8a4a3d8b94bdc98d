package dto

import (
	"time"

	"github.com/papertrade/sandbox-engine/internal/bot"
	"github.com/papertrade/sandbox-engine/internal/domain"
)

type SubmitOrderRequest struct {
	Side      string  `json:"side" binding:"required,oneof=BUY SELL"`
	Type      string  `json:"type" binding:"required,oneof=LIMIT MARKET"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	Price     float64 `json:"price" binding:"omitempty,gt=0"`
	Condition string  `json:"condition" binding:"omitempty,oneof=GTC IOC FOK"`
}

type Trade struct {
	ID        string    `json:"id"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	TakerSide string    `json:"takerSide"`
	Timestamp time.Time `json:"timestamp"`
}

type SubmitOrderResponse struct {
	OrderID      string  `json:"orderId"`
	Status       string  `json:"status"`
	FilledQty    float64 `json:"filledQuantity"`
	RemainingQty float64 `json:"remainingQuantity"`
	AveragePrice float64 `json:"averagePrice"`
	TotalCost    float64 `json:"totalCost"`
	Commission   float64 `json:"commission"`
	Trades       []Trade `json:"trades"`
}

type CancelOrderRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

type CancelOrderResponse struct {
	OrderID   string `json:"orderId"`
	Cancelled bool   `json:"cancelled"`
}

type SetPeriodRequest struct {
	PeriodMs int64 `json:"periodMs" binding:"required,gte=15000"`
}

type ScenarioRequest struct {
	Scenario string `json:"scenario" binding:"required"`
}

// ConfigRequest is the partial bot configuration accepted over HTTP.
// Durations are milliseconds. Nil fields keep current values.
type ConfigRequest struct {
	Scenario        *string   `json:"scenario"`
	Volatility      *float64  `json:"volatility"`
	Liquidity       *float64  `json:"liquidity"`
	UnitSize        *float64  `json:"unitSize"`
	IsOddLot        *bool     `json:"isOddLot"`
	Intensity       *float64  `json:"intensity"`
	ReactionDelayMs *int64    `json:"reactionDelayMs"`
	MarketMaker     *MMConfig `json:"marketMaker"`
	Trend           *TrendCfg `json:"trend"`
	Noise           *NoiseCfg `json:"noise"`
}

type MMConfig struct {
	SpreadPercent     *float64    `json:"spreadPercent"`
	Depth             *int        `json:"depth"`
	SizeRange         *[2]float64 `json:"sizeRange"`
	RefreshIntervalMs *int64      `json:"refreshIntervalMs"`
	InventoryLimit    *float64    `json:"inventoryLimit"`
}

type TrendCfg struct {
	Aggressiveness  *float64    `json:"aggressiveness"`
	SizeRange       *[2]float64 `json:"sizeRange"`
	TradeIntervalMs *int64      `json:"tradeIntervalMs"`
}

type NoiseCfg struct {
	TradeIntervalMs        *int64      `json:"tradeIntervalMs"`
	SizeRange              *[2]float64 `json:"sizeRange"`
	MarketOrderProbability *float64    `json:"marketOrderProbability"`
}

// Overrides converts the request into the manager's override struct.
func (r ConfigRequest) Overrides() bot.Overrides {
	var o bot.Overrides
	if r.Scenario != nil {
		s := bot.Scenario(*r.Scenario)
		o.Scenario = &s
	}
	o.Volatility = r.Volatility
	o.Liquidity = r.Liquidity
	o.UnitSize = r.UnitSize
	o.IsOddLot = r.IsOddLot
	o.Intensity = r.Intensity
	if r.ReactionDelayMs != nil {
		d := time.Duration(*r.ReactionDelayMs) * time.Millisecond
		o.ReactionDelay = &d
	}
	if mm := r.MarketMaker; mm != nil {
		o.MMSpreadPercent = mm.SpreadPercent
		o.MMDepth = mm.Depth
		o.MMSizeRange = mm.SizeRange
		o.MMInventoryLimit = mm.InventoryLimit
		if mm.RefreshIntervalMs != nil {
			d := time.Duration(*mm.RefreshIntervalMs) * time.Millisecond
			o.MMRefreshInterval = &d
		}
	}
	if t := r.Trend; t != nil {
		o.TrendAggressiveness = t.Aggressiveness
		o.TrendSizeRange = t.SizeRange
		if t.TradeIntervalMs != nil {
			d := time.Duration(*t.TradeIntervalMs) * time.Millisecond
			o.TrendTradeInterval = &d
		}
	}
	if n := r.Noise; n != nil {
		o.NoiseSizeRange = n.SizeRange
		o.NoiseMarketProb = n.MarketOrderProbability
		if n.TradeIntervalMs != nil {
			d := time.Duration(*n.TradeIntervalMs) * time.Millisecond
			o.NoiseTradeInterval = &d
		}
	}
	return o
}

func ConvertTrade(t *domain.Trade) Trade {
	return Trade{
		ID:        t.ID,
		Price:     t.Price,
		Quantity:  t.Quantity,
		TakerSide: string(t.TakerSide),
		Timestamp: t.Timestamp,
	}
}

func ConvertTrades(trades []*domain.Trade) []Trade {
	out := make([]Trade, 0, len(trades))
	for _, t := range trades {
		out = append(out, ConvertTrade(t))
	}
	return out
}

func ConvertResult(r *domain.MatchResult) SubmitOrderResponse {
	return SubmitOrderResponse{
		OrderID:      r.OrderID,
		Status:       string(r.Status),
		FilledQty:    r.FilledQty,
		RemainingQty: r.RemainingQty,
		AveragePrice: r.AveragePrice,
		TotalCost:    r.TotalCost,
		Commission:   r.Commission,
		Trades:       ConvertTrades(r.Trades),
	}
}
