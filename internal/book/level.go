// Package book implements the per-symbol price-level order book: a FIFO
// queue of resting orders at each price (spec.md §4.1) held in two
// price-indexed ordered maps, one per side (spec.md §4.2).
package book

import (
	"github.com/shopspring/decimal"

	"fenrir/internal/common"
)

// Level is the FIFO queue of resting orders sharing one price on one side
// of one symbol. Orders appear in strict submission-time order; the
// aggregate quantity is always the sum of remaining quantities and is
// never zero for a level still held in a Book (empty levels are removed).
type Level struct {
	Price  decimal.Decimal
	orders []*common.Order
}

func newLevel(price decimal.Decimal) *Level {
	return &Level{Price: price}
}

// Push appends a resting order to the tail of the queue.
func (l *Level) Push(o *common.Order) {
	l.orders = append(l.orders, o)
}

// Head peeks the first (oldest, highest priority) order in the level.
func (l *Level) Head() *common.Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

// PopHeadIfFilled drops the head order once its remaining quantity has
// reached zero. Returns true if the level became empty as a result.
func (l *Level) PopHeadIfFilled() (empty bool) {
	if len(l.orders) == 0 || !l.orders[0].Remaining.IsZero() {
		return len(l.orders) == 0
	}
	l.orders = l.orders[1:]
	return len(l.orders) == 0
}

// Remove drops an order by identity, preserving FIFO order of the rest.
// Acceptable O(k) in level size; most levels are shallow.
func (l *Level) Remove(o *common.Order) {
	for i, resting := range l.orders {
		if resting.ID == o.ID {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return
		}
	}
}

// Empty reports whether the level holds no resting orders.
func (l *Level) Empty() bool {
	return len(l.orders) == 0
}

// AggregateQuantity sums the remaining quantity of every order resting
// at this level.
func (l *Level) AggregateQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, o := range l.orders {
		total = total.Add(o.Remaining)
	}
	return total
}

// Orders returns the resting orders head-to-tail. Callers must not mutate
// the returned slice.
func (l *Level) Orders() []*common.Order {
	return l.orders
}
