package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a single client submission tracked through its full lifecycle.
// Price is the zero Decimal (and unused) for Market orders; every other
// order type requires it (spec.md §3).
//
// Remaining is mutated only by the matching core, and only monotonically
// downward, while the order is reachable from a price level or from a
// submit call in flight. Once Status is terminal no field may change again.
type Order struct {
	ID          string
	Symbol      string
	Side        Side
	Type        OrderType
	Original    decimal.Decimal
	Remaining   decimal.Decimal
	Price       decimal.Decimal
	Status      Status
	SubmittedAt time.Time
	Owner       string
}

// New constructs an order ready for admission: a fresh id, server timestamp,
// and remaining equal to the full requested quantity.
func New(symbol string, side Side, typ OrderType, qty, price decimal.Decimal, owner string) *Order {
	return &Order{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Side:        side,
		Type:        typ,
		Original:    qty,
		Remaining:   qty,
		Price:       price,
		Status:      Open,
		SubmittedAt: time.Now(),
		Owner:       owner,
	}
}

// Filled reports the quantity executed so far.
func (o *Order) Filled() decimal.Decimal {
	return o.Original.Sub(o.Remaining)
}

// Fill deducts qty from the remaining quantity and advances status to
// Filled or PartiallyFilled. It must only be called by the matching core
// while qty <= o.Remaining.
func (o *Order) Fill(qty decimal.Decimal) {
	o.Remaining = o.Remaining.Sub(qty)
	if o.Remaining.IsZero() {
		o.Status = Filled
		return
	}
	o.Status = PartiallyFilled
}

// CancelResidual marks whatever remains as cancelled, or partially_filled
// if some quantity was already matched. It is only valid for the
// non-resting residual paths (market/ioc/fok); a Limit residual rests
// instead of cancelling.
func (o *Order) CancelResidual() {
	if o.Remaining.Equal(o.Original) {
		o.Status = Cancelled
		return
	}
	if !o.Remaining.IsZero() {
		o.Status = PartiallyFilled
	}
}

func (o *Order) String() string {
	return fmt.Sprintf(
		"Order{id=%s symbol=%s side=%s type=%s price=%s remaining=%s/%s status=%s owner=%s}",
		o.ID, o.Symbol, o.Side, o.Type, o.Price, o.Remaining, o.Original, o.Status, o.Owner,
	)
}
