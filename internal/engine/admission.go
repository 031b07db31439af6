package engine

import (
	"github.com/shopspring/decimal"

	"fenrir/internal/book"
	"fenrir/internal/common"
)

// validate enforces spec.md §4.4 step 1 before any order is constructed:
// an order type requiring a price must have one, and quantity must be
// strictly positive.
func validate(typ common.OrderType, side common.Side, qty, price decimal.Decimal, priceSet bool) error {
	if side != common.Buy && side != common.Sell {
		return newError(InvalidRequest, "unknown side")
	}
	if typ != common.Market && typ != common.Limit && typ != common.IOC && typ != common.FOK {
		return newError(InvalidRequest, "unknown order type")
	}
	if !qty.IsPositive() {
		return newError(InvalidRequest, "quantity must be strictly positive")
	}
	if typ.RequiresPrice() {
		if !priceSet || !price.IsPositive() {
			return newError(InvalidRequest, "price is required for this order type")
		}
	}
	return nil
}

// admit runs the full order-type semantics around match (spec.md §4.3
// table): the FOK pre-check, the sweep itself, and the post-match residual
// policy (rest / cancel / partially_filled). It mutates b in place and
// returns every trade produced; an order that comes back with
// Status == Cancelled and no trades may still have been persisted as such
// by the caller (spec.md §7, UnfillableFOK is not an error).
func admit(b *book.Book, order *common.Order) []common.Trade {
	if order.Type == common.FOK {
		if !reachableLiquidity(b, order, order.Original) {
			order.Status = common.Cancelled
			return nil
		}
	}

	trades := match(b, order)

	switch order.Type {
	case common.Limit:
		if order.Remaining.IsPositive() {
			b.Insert(order)
		}
	case common.Market, common.IOC, common.FOK:
		if order.Remaining.IsPositive() {
			order.CancelResidual()
		}
	}

	return trades
}
