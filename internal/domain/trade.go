package domain

import "time"

// Trade is an immutable match record. TakerSide is the side of the incoming
// order that caused the match; the maker is the resting order consumed.
type Trade struct {
	ID          string
	Price       float64
	Quantity    float64
	BuyOrderID  string
	SellOrderID string
	TakerSide   Side
	MakerSource Source
	TakerSource Source
	Timestamp   time.Time
}
