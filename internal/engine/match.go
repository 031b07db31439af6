package engine

import (
	"github.com/shopspring/decimal"

	"fenrir/internal/book"
	"fenrir/internal/common"
)

// match runs the core price-time-priority sweep for taker against b,
// mutating taker.Remaining in place and returning every trade produced
// (spec.md §4.3). It never inspects taker.Type beyond whether the order is
// price-bounded; residual handling after the sweep is the caller's job
// (see admit in admission.go).
func match(b *book.Book, taker *common.Order) []common.Trade {
	var trades []common.Trade
	opposite := taker.Side.Opposite()

	for taker.Remaining.IsPositive() {
		best := b.Best(opposite)
		if best == nil {
			break
		}
		if priceBlocks(taker, best.Price) {
			break
		}

		maker := best.Head()
		if maker == nil {
			break
		}

		qty := decimal.Min(taker.Remaining, maker.Remaining)

		trade := common.NewTrade(taker.Symbol, best.Price, qty, taker.Side, maker.ID, taker.ID)
		trades = append(trades, trade)

		maker.Fill(qty)
		taker.Fill(qty)

		b.ReleaseHeadIfFilled(opposite, best)
	}

	return trades
}

// priceBlocks reports whether the best opposite price is outside taker's
// limit, for the order types that carry one. Market orders are never
// price-bounded (spec.md §9 Open Question, preserved from the source).
func priceBlocks(taker *common.Order, bestPrice decimal.Decimal) bool {
	if !taker.Type.RequiresPrice() {
		return false
	}
	if taker.Side == common.Buy {
		return taker.Price.LessThan(bestPrice)
	}
	return taker.Price.GreaterThan(bestPrice)
}

// reachableLiquidity scans the opposite side best-to-worst, accumulating
// quantity across levels whose price is acceptable to taker, stopping as
// soon as the running sum reaches target. Used by FOK's pre-match
// liquidity check (spec.md §4.3). Because Levels() is already best-first
// and priceBlocks is monotonic in level price, the scan can stop at the
// first blocked level.
func reachableLiquidity(b *book.Book, taker *common.Order, target decimal.Decimal) bool {
	sum := decimal.Zero
	for _, lvl := range b.Levels(taker.Side.Opposite()) {
		if priceBlocks(taker, lvl.Price) {
			break
		}
		sum = sum.Add(lvl.AggregateQuantity())
		if sum.GreaterThanOrEqual(target) {
			return true
		}
	}
	return false
}
