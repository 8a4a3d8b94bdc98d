package domain

// Candle is an OHLCV record for one time bucket. Timestamp is the bucket
// start in unix milliseconds.
type Candle struct {
	Timestamp  int64   `json:"timestamp"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
	TradeCount int     `json:"tradeCount"`
}

// MarketStats summarizes the rolling 24h window of base candles.
type MarketStats struct {
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Open       float64 `json:"open"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
	Change     float64 `json:"change"`
	ChangePerc float64 `json:"changePercent"`
}
