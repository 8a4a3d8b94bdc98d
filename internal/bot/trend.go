package bot

import (
	"math"
	"math/rand"

	"github.com/papertrade/sandbox-engine/internal/domain"
)

const (
	trendHistoryCap = 40
	trendShortWin   = 5
	trendLongWin    = 20
)

// Trend follows momentum: it compares a short rolling average against a
// longer one and trades in the direction of the divergence once it clears
// an aggressiveness-scaled threshold.
type Trend struct {
	rng     *rand.Rand
	history []float64
}

func NewTrend(rng *rand.Rand) *Trend {
	return &Trend{rng: rng}
}

// Observe appends the latest price to the rolling history.
func (t *Trend) Observe(price float64) {
	if price <= 0 {
		return
	}
	t.history = append(t.history, price)
	if len(t.history) > trendHistoryCap {
		t.history = t.history[len(t.history)-trendHistoryCap:]
	}
}

// Signal is the normalized short-minus-long average divergence plus the
// scenario bias. Volatile regimes re-roll the bias each call.
func (t *Trend) Signal(p preset) float64 {
	bias := p.Bias
	if p.RandomBias {
		bias = (t.rng.Float64() - 0.5) * 0.01
	}
	if len(t.history) < trendLongWin {
		return bias
	}
	short := avg(t.history[len(t.history)-trendShortWin:])
	long := avg(t.history[len(t.history)-trendLongWin:])
	if long <= 0 {
		return bias
	}
	return (short-long)/long + bias
}

// Order emits a momentum market order when the signal clears the threshold,
// sized proportionally to signal strength. Returns nil when the signal is
// too weak.
func (t *Trend) Order(cfg TrendConfig, p preset) *Order {
	signal := t.Signal(p)
	aggr := cfg.Aggressiveness * p.Aggressiveness
	if aggr <= 0 {
		return nil
	}
	threshold := 0.002 / aggr
	if math.Abs(signal) < threshold {
		return nil
	}

	side := domain.Buy
	if signal < 0 {
		side = domain.Sell
	}
	strength := math.Min(math.Abs(signal)/threshold, 3)
	size := t.randSize(cfg.SizeRange) * strength
	return &Order{Side: side, Type: domain.Market, Quantity: size, Bot: "trend"}
}

func (t *Trend) randSize(r [2]float64) float64 {
	if r[1] <= r[0] {
		return r[0]
	}
	return r[0] + t.rng.Float64()*(r[1]-r[0])
}

func avg(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
