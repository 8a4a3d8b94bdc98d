package domain

import "time"

// LevelView is one aggregated price level in a depth snapshot. Orders from an
// excluded source are filtered out before Quantity is computed.
type LevelView struct {
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	OrderCount int     `json:"orderCount"`
}

// BookSnapshot is a read-only copy of the top of the book. BestAsk/BestBid
// and Spread are zero when the corresponding side is empty.
type BookSnapshot struct {
	Asks      []LevelView `json:"asks"`
	Bids      []LevelView `json:"bids"`
	Spread    float64     `json:"spread"`
	BestAsk   float64     `json:"bestAsk,omitempty"`
	BestBid   float64     `json:"bestBid,omitempty"`
	LastPrice float64     `json:"lastPrice"`
	Timestamp time.Time   `json:"timestamp"`
}
