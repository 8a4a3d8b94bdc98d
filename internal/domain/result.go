package domain

// MatchResult is returned synchronously from every order submission.
// AveragePrice, TotalCost and Commission are rounded to cents.
type MatchResult struct {
	OrderID      string
	Status       OrderStatus
	FilledQty    float64
	RemainingQty float64
	AveragePrice float64
	TotalCost    float64
	Commission   float64
	Trades       []*Trade
}
