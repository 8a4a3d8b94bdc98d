package core

import "math"

// TickSize returns the minimum price increment for a given price magnitude.
// The schedule is tiered the way most cash equity venues tier theirs: cheap
// names move in cents, expensive ones in larger steps.
func TickSize(price float64) float64 {
	switch {
	case price < 10:
		return 0.01
	case price < 50:
		return 0.05
	case price < 100:
		return 0.1
	case price < 500:
		return 0.5
	case price < 1000:
		return 1
	default:
		return 5
	}
}

// RoundToTick snaps price to the nearest valid increment. Every price that
// enters the book must pass through here.
func RoundToTick(price float64) float64 {
	return clamp(math.Round(price/TickSize(price)) * TickSize(price))
}

// FloorToTick snaps price down. Used for bot-derived bid prices so an offset
// never crosses the intended spread.
func FloorToTick(price float64) float64 {
	return clamp(math.Floor(price/TickSize(price)) * TickSize(price))
}

// CeilToTick snaps price up. Used for bot-derived ask prices.
func CeilToTick(price float64) float64 {
	return clamp(math.Ceil(price/TickSize(price)) * TickSize(price))
}

// clamp cuts to two decimal places to eliminate float drift from the
// divide-multiply round trip.
func clamp(price float64) float64 {
	return math.Round(price*100) / 100
}
