package domain

import "time"

type Side string
type OrderType string
type OrderStatus string
type Source string
type Condition string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"

	Limit  OrderType = "LIMIT"
	Market OrderType = "MARKET"

	// SourceUser marks orders submitted through the UI, SourceBot the
	// synthetic flow generated by the trading agents.
	SourceUser Source = "USER"
	SourceBot  Source = "BOT"

	// GTC rests the unfilled remainder in the book, IOC discards it, FOK
	// fills the whole order immediately or not at all.
	GTC Condition = "GTC"
	IOC Condition = "IOC"
	FOK Condition = "FOK"

	Pending         OrderStatus = "PENDING"
	PartiallyFilled OrderStatus = "PARTIAL"
	Filled          OrderStatus = "FILLED"
	Cancelled       OrderStatus = "CANCELLED"
)

// Order is an incoming or resting order. Price is tick-rounded before the
// order is stored; Remaining is only ever decremented by fills.
type Order struct {
	ID        string
	Side      Side
	Type      OrderType
	Price     float64
	Quantity  float64
	Remaining float64
	Source    Source
	Condition Condition
	CreatedAt time.Time
}

func (o *Order) Filled() bool {
	return o.Remaining <= 0
}

func (o *Order) PartiallyFilled() bool {
	return o.Remaining > 0 && o.Remaining < o.Quantity
}
