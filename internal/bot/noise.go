package bot

import (
	"math/rand"

	"github.com/papertrade/sandbox-engine/internal/core"
	"github.com/papertrade/sandbox-engine/internal/domain"
)

// Noise emits uninformed random flow: one order per cadence, random side and
// size, market or limit by configured probability. Limit prices jitter
// within ±0.5% of the current price.
type Noise struct {
	rng *rand.Rand
}

func NewNoise(rng *rand.Rand) *Noise {
	return &Noise{rng: rng}
}

func (n *Noise) Order(price float64, cfg NoiseConfig) *Order {
	if price <= 0 {
		return nil
	}

	side := domain.Buy
	if n.rng.Float64() < 0.5 {
		side = domain.Sell
	}
	size := cfg.SizeRange[0]
	if cfg.SizeRange[1] > cfg.SizeRange[0] {
		size += n.rng.Float64() * (cfg.SizeRange[1] - cfg.SizeRange[0])
	}

	if n.rng.Float64() < cfg.MarketOrderProbability {
		return &Order{Side: side, Type: domain.Market, Quantity: size, Bot: "noise"}
	}

	jitter := (n.rng.Float64() - 0.5) * 0.01 // ±0.5%
	limit := price * (1 + jitter)
	if side == domain.Buy {
		limit = core.FloorToTick(limit)
	} else {
		limit = core.CeilToTick(limit)
	}
	if limit <= 0 {
		return nil
	}
	return &Order{Side: side, Type: domain.Limit, Price: limit, Quantity: size, Bot: "noise"}
}
