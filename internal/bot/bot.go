package bot

import (
	"time"

	"github.com/papertrade/sandbox-engine/internal/core"
	"github.com/papertrade/sandbox-engine/internal/domain"
)

// Order is an ephemeral candidate emitted by a bot. Price 0 means market.
// It exists only between generation and submission.
type Order struct {
	Side     domain.Side
	Type     domain.OrderType
	Price    float64
	Quantity float64
	Bot      string
}

// Submitter is the slice of the engine the manager needs. sim.Market
// implements it so bot fills flow through the same path as user orders.
type Submitter interface {
	Submit(side domain.Side, typ domain.OrderType, quantity, price float64, source domain.Source, cond domain.Condition) *domain.MatchResult
	Cancel(id string) bool
	LastPrice() float64
	Book() *core.OrderBook
}

// MarketMakerConfig tunes the two-sided quoting agent.
type MarketMakerConfig struct {
	SpreadPercent   float64
	Depth           int
	SizeRange       [2]float64
	RefreshInterval time.Duration
	InventoryLimit  float64
}

// TrendConfig tunes the momentum agent.
type TrendConfig struct {
	Aggressiveness float64
	SizeRange      [2]float64
	TradeInterval  time.Duration
}

// NoiseConfig tunes the random-flow agent.
type NoiseConfig struct {
	TradeInterval          time.Duration
	SizeRange              [2]float64
	MarketOrderProbability float64
}

// Config is the full bot-manager configuration. Every field here is
// overridable through Overrides.
type Config struct {
	Scenario      Scenario
	Volatility    float64
	Liquidity     float64
	UnitSize      float64
	IsOddLot      bool
	Intensity     float64
	ReactionDelay time.Duration
	MarketMaker   MarketMakerConfig
	Trend         TrendConfig
	Noise         NoiseConfig
}

func DefaultConfig() Config {
	return Config{
		Scenario:      ScenarioSideways,
		Volatility:    1,
		Liquidity:     1,
		UnitSize:      100,
		IsOddLot:      false,
		Intensity:     1,
		ReactionDelay: 1500 * time.Millisecond,
		MarketMaker: MarketMakerConfig{
			SpreadPercent:   0.2,
			Depth:           4,
			SizeRange:       [2]float64{1, 4},
			RefreshInterval: 3 * time.Second,
			InventoryLimit:  50,
		},
		Trend: TrendConfig{
			Aggressiveness: 1,
			SizeRange:      [2]float64{1, 3},
			TradeInterval:  2 * time.Second,
		},
		Noise: NoiseConfig{
			TradeInterval:          1200 * time.Millisecond,
			SizeRange:              [2]float64{1, 2},
			MarketOrderProbability: 0.4,
		},
	}
}

// Overrides is a partial Config; nil fields keep the current value. The
// recognized fields are enumerated explicitly rather than merged dynamically.
type Overrides struct {
	Scenario      *Scenario
	Volatility    *float64
	Liquidity     *float64
	UnitSize      *float64
	IsOddLot      *bool
	Intensity     *float64
	ReactionDelay *time.Duration

	MMSpreadPercent   *float64
	MMDepth           *int
	MMSizeRange       *[2]float64
	MMRefreshInterval *time.Duration
	MMInventoryLimit  *float64

	TrendAggressiveness *float64
	TrendSizeRange      *[2]float64
	TrendTradeInterval  *time.Duration

	NoiseTradeInterval *time.Duration
	NoiseSizeRange     *[2]float64
	NoiseMarketProb    *float64
}

// Apply copies every set override into cfg.
func (o Overrides) Apply(cfg *Config) {
	if o.Scenario != nil {
		cfg.Scenario = *o.Scenario
	}
	if o.Volatility != nil {
		cfg.Volatility = *o.Volatility
	}
	if o.Liquidity != nil {
		cfg.Liquidity = *o.Liquidity
	}
	if o.UnitSize != nil {
		cfg.UnitSize = *o.UnitSize
	}
	if o.IsOddLot != nil {
		cfg.IsOddLot = *o.IsOddLot
	}
	if o.Intensity != nil {
		cfg.Intensity = *o.Intensity
	}
	if o.ReactionDelay != nil {
		cfg.ReactionDelay = *o.ReactionDelay
	}
	if o.MMSpreadPercent != nil {
		cfg.MarketMaker.SpreadPercent = *o.MMSpreadPercent
	}
	if o.MMDepth != nil {
		cfg.MarketMaker.Depth = *o.MMDepth
	}
	if o.MMSizeRange != nil {
		cfg.MarketMaker.SizeRange = *o.MMSizeRange
	}
	if o.MMRefreshInterval != nil {
		cfg.MarketMaker.RefreshInterval = *o.MMRefreshInterval
	}
	if o.MMInventoryLimit != nil {
		cfg.MarketMaker.InventoryLimit = *o.MMInventoryLimit
	}
	if o.TrendAggressiveness != nil {
		cfg.Trend.Aggressiveness = *o.TrendAggressiveness
	}
	if o.TrendSizeRange != nil {
		cfg.Trend.SizeRange = *o.TrendSizeRange
	}
	if o.TrendTradeInterval != nil {
		cfg.Trend.TradeInterval = *o.TrendTradeInterval
	}
	if o.NoiseTradeInterval != nil {
		cfg.Noise.TradeInterval = *o.NoiseTradeInterval
	}
	if o.NoiseSizeRange != nil {
		cfg.Noise.SizeRange = *o.NoiseSizeRange
	}
	if o.NoiseMarketProb != nil {
		cfg.Noise.MarketOrderProbability = *o.NoiseMarketProb
	}
}
