package core

import (
	"math"
	"sort"

	"github.com/papertrade/sandbox-engine/internal/domain"
)

// PriceLevel holds every resting order at one exact price in arrival order.
// Invariant: TotalQty == sum of Remaining over Orders.
type PriceLevel struct {
	Price    float64
	Orders   []*domain.Order
	TotalQty float64
}

// OrderBook keeps asks and bids as price levels plus an id index for O(1)
// lookup and cancel. Levels are keyed by integer cents; a level with no
// orders is removed eagerly, so an existing level always has quantity.
type OrderBook struct {
	asks map[int64]*PriceLevel
	bids map[int64]*PriceLevel

	// sorted ascending; best ask is askKeys[0], best bid is the last bidKey.
	askKeys []int64
	bidKeys []int64

	index map[string]*domain.Order
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		asks:  make(map[int64]*PriceLevel),
		bids:  make(map[int64]*PriceLevel),
		index: make(map[string]*domain.Order),
	}
}

func priceKey(price float64) int64 {
	return int64(math.Round(price * 100))
}

// AddOrder appends the order to the FIFO queue at its price, creating the
// level if absent. The price must already be tick-rounded.
func (b *OrderBook) AddOrder(o *domain.Order) {
	levels, keys := b.sideOf(o.Side)
	key := priceKey(o.Price)
	level, ok := levels[key]
	if !ok {
		level = &PriceLevel{Price: o.Price}
		levels[key] = level
		*keys = insertKey(*keys, key)
	}
	level.Orders = append(level.Orders, o)
	level.TotalQty += o.Remaining
	b.index[o.ID] = o
}

// CancelOrder removes the order from its level and the index, deleting the
// level if it empties. Returns false for unknown ids.
func (b *OrderBook) CancelOrder(id string) bool {
	o, ok := b.index[id]
	if !ok {
		return false
	}
	b.removeOrder(o)
	return true
}

// Order returns the resting order for id, or nil.
func (b *OrderBook) Order(id string) *domain.Order {
	return b.index[id]
}

// UpdateOrderQuantity decrements the order's remaining quantity by filled and
// removes the order (and an emptied level) once nothing remains.
func (b *OrderBook) UpdateOrderQuantity(id string, filled float64) {
	o, ok := b.index[id]
	if !ok {
		return
	}
	o.Remaining -= filled
	levels, _ := b.sideOf(o.Side)
	if level, ok := levels[priceKey(o.Price)]; ok {
		level.TotalQty -= filled
	}
	if o.Remaining <= 0 {
		b.removeOrder(o)
	}
}

// BestAsk returns the lowest-priced ask level, or nil.
func (b *OrderBook) BestAsk() *PriceLevel {
	if len(b.askKeys) == 0 {
		return nil
	}
	return b.asks[b.askKeys[0]]
}

// BestBid returns the highest-priced bid level, or nil.
func (b *OrderBook) BestBid() *PriceLevel {
	if len(b.bidKeys) == 0 {
		return nil
	}
	return b.bids[b.bidKeys[len(b.bidKeys)-1]]
}

// SortedAsks returns all ask levels, lowest price first.
func (b *OrderBook) SortedAsks() []*PriceLevel {
	out := make([]*PriceLevel, 0, len(b.askKeys))
	for _, k := range b.askKeys {
		out = append(out, b.asks[k])
	}
	return out
}

// SortedBids returns all bid levels, highest price first.
func (b *OrderBook) SortedBids() []*PriceLevel {
	out := make([]*PriceLevel, 0, len(b.bidKeys))
	for i := len(b.bidKeys) - 1; i >= 0; i-- {
		out = append(out, b.bids[b.bidKeys[i]])
	}
	return out
}

// LiquidityWithin sums opposing remaining quantity reachable by an order of
// the given side. limit <= 0 means no price bound (market order).
func (b *OrderBook) LiquidityWithin(side domain.Side, limit float64) float64 {
	var total float64
	if side == domain.Buy {
		for _, level := range b.SortedAsks() {
			if limit > 0 && level.Price > limit {
				break
			}
			total += level.TotalQty
		}
	} else {
		for _, level := range b.SortedBids() {
			if limit > 0 && level.Price < limit {
				break
			}
			total += level.TotalQty
		}
	}
	return total
}

// Snapshot returns up to depth levels per side. Orders from exclude are
// filtered out and level quantities recomputed; a level left empty by the
// filter is skipped rather than reported as zero.
func (b *OrderBook) Snapshot(depth int, exclude domain.Source) (asks, bids []domain.LevelView) {
	asks = snapshotSide(b.SortedAsks(), depth, exclude)
	bids = snapshotSide(b.SortedBids(), depth, exclude)
	return asks, bids
}

func snapshotSide(levels []*PriceLevel, depth int, exclude domain.Source) []domain.LevelView {
	out := make([]domain.LevelView, 0, depth)
	for _, level := range levels {
		if len(out) == depth {
			break
		}
		var qty float64
		var count int
		for _, o := range level.Orders {
			if exclude != "" && o.Source == exclude {
				continue
			}
			qty += o.Remaining
			count++
		}
		if count == 0 {
			continue
		}
		out = append(out, domain.LevelView{Price: level.Price, Quantity: qty, OrderCount: count})
	}
	return out
}

// PruneDistant cancels all orders of the given source priced outside
// reference*(1±threshold) and returns the cancelled ids. Keeps stale bot
// quotes from anchoring the book to a price the market has left behind.
func (b *OrderBook) PruneDistant(reference, threshold float64, source domain.Source) []string {
	if reference <= 0 {
		return nil
	}
	lower := reference * (1 - threshold)
	upper := reference * (1 + threshold)
	var doomed []string
	for id, o := range b.index {
		if o.Source != source {
			continue
		}
		if o.Price < lower || o.Price > upper {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		b.CancelOrder(id)
	}
	return doomed
}

// OrdersBySource returns the ids of all resting orders from one source.
func (b *OrderBook) OrdersBySource(source domain.Source) []string {
	var ids []string
	for id, o := range b.index {
		if o.Source == source {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of resting orders.
func (b *OrderBook) Len() int { return len(b.index) }

func (b *OrderBook) sideOf(side domain.Side) (map[int64]*PriceLevel, *[]int64) {
	if side == domain.Buy {
		return b.bids, &b.bidKeys
	}
	return b.asks, &b.askKeys
}

func (b *OrderBook) removeOrder(o *domain.Order) {
	levels, keys := b.sideOf(o.Side)
	key := priceKey(o.Price)
	if level, ok := levels[key]; ok {
		for i, rest := range level.Orders {
			if rest.ID == o.ID {
				level.Orders = append(level.Orders[:i], level.Orders[i+1:]...)
				if rest.Remaining > 0 {
					level.TotalQty -= rest.Remaining
				}
				break
			}
		}
		if len(level.Orders) == 0 {
			delete(levels, key)
			*keys = deleteKey(*keys, key)
		}
	}
	delete(b.index, o.ID)
}

func insertKey(keys []int64, key int64) []int64 {
	i := sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
	keys = append(keys, 0)
	copy(keys[i+1:], keys[i:])
	keys[i] = key
	return keys
}

func deleteKey(keys []int64, key int64) []int64 {
	i := sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
	if i < len(keys) && keys[i] == key {
		return append(keys[:i], keys[i+1:]...)
	}
	return keys
}
