package candle

import (
	"math"
	"math/rand"
	"time"

	"github.com/papertrade/sandbox-engine/internal/core"
	"github.com/papertrade/sandbox-engine/internal/domain"
)

const (
	// BaseResolution is the finest-grained bucket stored. Display periods
	// are always resampled from it, never the other way around.
	BaseResolution = int64(15_000)

	// maxBaseCandles keeps a full 24h window (5760 base candles) plus tail.
	maxBaseCandles = 6000
)

// Aggregator consumes trades and periodic price ticks into base-resolution
// OHLCV candles and resamples them on demand into the display period.
// Not safe for concurrent use; callers serialize through sim.Market.
type Aggregator struct {
	clock core.Clock
	rng   *rand.Rand

	period  int64 // display period, ms
	base    []domain.Candle
	current *domain.Candle
}

func NewAggregator(clock core.Clock, rng *rand.Rand) *Aggregator {
	return &Aggregator{
		clock:  clock,
		rng:    rng,
		period: 60_000,
	}
}

func bucketStart(tsMillis, resolution int64) int64 {
	return tsMillis / resolution * resolution
}

// ProcessTrade folds one trade into the in-progress base candle, rolling it
// into history when the trade falls into a new bucket.
func (a *Aggregator) ProcessTrade(t *domain.Trade) {
	bucket := bucketStart(t.Timestamp.UnixMilli(), BaseResolution)
	if a.current == nil || a.current.Timestamp != bucket {
		a.roll(bucket, t.Price)
	}
	c := a.current
	c.High = math.Max(c.High, t.Price)
	c.Low = math.Min(c.Low, t.Price)
	c.Close = t.Price
	c.Volume += t.Quantity
	c.TradeCount++
}

// Tick advances candles on wall-clock time without adding volume, so the
// chart keeps moving through quiet stretches.
func (a *Aggregator) Tick(price float64) {
	if price <= 0 {
		return
	}
	bucket := bucketStart(a.clock.Now().UnixMilli(), BaseResolution)
	if a.current == nil || a.current.Timestamp != bucket {
		a.roll(bucket, price)
		return
	}
	c := a.current
	c.High = math.Max(c.High, price)
	c.Low = math.Min(c.Low, price)
	c.Close = price
}

// roll finalizes the in-progress candle into history and opens a new one.
func (a *Aggregator) roll(bucket int64, price float64) {
	if a.current != nil {
		a.base = append(a.base, *a.current)
		if len(a.base) > maxBaseCandles {
			a.base = a.base[len(a.base)-maxBaseCandles:]
		}
	}
	a.current = &domain.Candle{
		Timestamp: bucket,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
	}
}

// SetPeriod changes the display aggregation window. Base history is never
// re-bucketed, only resampled on read.
func (a *Aggregator) SetPeriod(periodMillis int64) {
	if periodMillis >= BaseResolution {
		a.period = periodMillis
	}
}

func (a *Aggregator) Period() int64 { return a.period }

// AllCandles resamples the full base history plus the in-progress candle
// into the display period. Pure function of stored data: calling it any
// number of times yields the same result.
func (a *Aggregator) AllCandles() []domain.Candle {
	return resample(a.withCurrent(), a.period)
}

// CurrentCandle returns the in-progress display candle, or nil before any
// data has arrived.
func (a *Aggregator) CurrentCandle() *domain.Candle {
	candles := a.AllCandles()
	if len(candles) == 0 {
		return nil
	}
	last := candles[len(candles)-1]
	return &last
}

// PrevClose returns the close of the display candle before the current one,
// falling back to the current candle's open.
func (a *Aggregator) PrevClose() float64 {
	candles := a.AllCandles()
	switch len(candles) {
	case 0:
		return 0
	case 1:
		return candles[0].Open
	default:
		return candles[len(candles)-2].Close
	}
}

// Stats computes the rolling 24h figures over base candles. Using the base
// window keeps the numbers independent of the selected display period.
func (a *Aggregator) Stats() domain.MarketStats {
	cutoff := a.clock.Now().UnixMilli() - 24*60*60*1000
	var window []domain.Candle
	for _, c := range a.withCurrent() {
		if c.Timestamp >= cutoff {
			window = append(window, c)
		}
	}
	if len(window) == 0 {
		return domain.MarketStats{}
	}

	stats := domain.MarketStats{
		Open:  window[0].Open,
		Close: window[len(window)-1].Close,
		High:  window[0].High,
		Low:   window[0].Low,
	}
	for _, c := range window {
		stats.High = math.Max(stats.High, c.High)
		stats.Low = math.Min(stats.Low, c.Low)
		stats.Volume += c.Volume
	}
	stats.Change = math.Round((stats.Close-stats.Open)*100) / 100
	if stats.Open > 0 {
		stats.ChangePerc = math.Round(stats.Change/stats.Open*10000) / 100
	}
	return stats
}

// GenerateHistory backfills base candles from startTime to now with a
// bounded random walk around basePrice, for cold-start chart display.
func (a *Aggregator) GenerateHistory(startTime time.Time, basePrice float64) {
	start := bucketStart(startTime.UnixMilli(), BaseResolution)
	end := bucketStart(a.clock.Now().UnixMilli(), BaseResolution)

	a.base = a.base[:0]
	a.current = nil

	price := core.RoundToTick(basePrice)
	for ts := start; ts < end; ts += BaseResolution {
		drift := (a.rng.Float64() - 0.5) * 0.004
		next := price * (1 + drift)
		// keep the walk within ±10% of the anchor
		next = math.Max(basePrice*0.9, math.Min(basePrice*1.1, next))
		next = core.RoundToTick(next)

		high := core.RoundToTick(math.Max(price, next) * (1 + a.rng.Float64()*0.001))
		low := core.RoundToTick(math.Min(price, next) * (1 - a.rng.Float64()*0.001))

		a.base = append(a.base, domain.Candle{
			Timestamp:  ts,
			Open:       price,
			High:       high,
			Low:        low,
			Close:      next,
			Volume:     math.Round(a.rng.Float64() * 500),
			TradeCount: 1 + a.rng.Intn(20),
		})
		price = next
	}
	if len(a.base) > maxBaseCandles {
		a.base = a.base[len(a.base)-maxBaseCandles:]
	}
}

func (a *Aggregator) withCurrent() []domain.Candle {
	if a.current == nil {
		return a.base
	}
	out := make([]domain.Candle, 0, len(a.base)+1)
	out = append(out, a.base...)
	return append(out, *a.current)
}

// resample groups base candles into period buckets, merging OHLCV. Volume
// and trade counts are conserved exactly.
func resample(base []domain.Candle, period int64) []domain.Candle {
	var out []domain.Candle
	for _, c := range base {
		bucket := bucketStart(c.Timestamp, period)
		if len(out) == 0 || out[len(out)-1].Timestamp != bucket {
			merged := c
			merged.Timestamp = bucket
			out = append(out, merged)
			continue
		}
		last := &out[len(out)-1]
		last.High = math.Max(last.High, c.High)
		last.Low = math.Min(last.Low, c.Low)
		last.Close = c.Close
		last.Volume += c.Volume
		last.TradeCount += c.TradeCount
	}
	return out
}
