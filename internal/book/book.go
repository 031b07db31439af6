package book

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"fenrir/internal/common"
)

// levels is the ordered price->Level map for one side of one symbol. The
// teacher keyed bids by a negated price to reuse one ascending comparator;
// spec.md §9 calls that trick out explicitly and asks for a descending
// comparator instead, so each side gets its own.
type levels = btree.BTreeG[*Level]

// location is what the order index keeps per resting order: enough to find
// and remove it from its book in O(log n) without a linear scan.
type location struct {
	side  common.Side
	level *Level
}

// Book holds the two opposing price-indexed ordered maps for a single
// symbol (spec.md §4.2), plus an id->location index for O(log n) lookup and
// removal (spec.md §2 item 3). It guarantees no-crossed-book by
// construction: callers only ever Insert a resting order after a match
// phase has already consumed everything that would cross it.
type Book struct {
	Symbol string
	bids   *levels
	asks   *levels
	index  map[string]location
}

// New creates an empty book for symbol. Bids iterate highest price first;
// asks iterate lowest price first.
func New(symbol string) *Book {
	return &Book{
		Symbol: symbol,
		bids: btree.NewBTreeG(func(a, b *Level) bool {
			return a.Price.GreaterThan(b.Price) // descending: best bid first
		}),
		asks: btree.NewBTreeG(func(a, b *Level) bool {
			return a.Price.LessThan(b.Price) // ascending: best ask first
		}),
		index: make(map[string]location),
	}
}

func (b *Book) sideTree(side common.Side) *levels {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

// Best returns the best (highest bid / lowest ask) level on side, or nil if
// that side is empty.
func (b *Book) Best(side common.Side) *Level {
	lvl, ok := b.sideTree(side).Min()
	if !ok {
		return nil
	}
	return lvl
}

// Insert adds a resting order into the level at its price, creating the
// level if it does not yet exist, and records its location in the index.
func (b *Book) Insert(o *common.Order) {
	tree := b.sideTree(o.Side)
	lvl, ok := tree.GetMut(&Level{Price: o.Price})
	if !ok {
		lvl = newLevel(o.Price)
		tree.Set(lvl)
	}
	lvl.Push(o)
	b.index[o.ID] = location{side: o.Side, level: lvl}
}

// Remove drops an order from its level by id, dropping the level itself if
// it becomes empty. No-op if the order is not resting in this book.
func (b *Book) Remove(orderID string) {
	loc, ok := b.index[orderID]
	if !ok {
		return
	}
	delete(b.index, orderID)
	loc.level.Remove(&common.Order{ID: orderID})
	b.dropIfEmpty(loc.side, loc.level)
}

// dropIfEmpty removes a level from its tree once it has no resting orders.
// Called after the matching core mutates a level directly.
func (b *Book) dropIfEmpty(side common.Side, lvl *Level) {
	if lvl.Empty() {
		b.sideTree(side).Delete(lvl)
	}
}

// ReleaseHeadIfFilled pops the head of lvl once it is fully consumed,
// removes it from the order index, and drops the level if it is now empty.
// This is the one mutation path the matching core uses to retire a maker.
func (b *Book) ReleaseHeadIfFilled(side common.Side, lvl *Level) {
	head := lvl.Head()
	if head == nil || !head.Remaining.IsZero() {
		return
	}
	delete(b.index, head.ID)
	lvl.PopHeadIfFilled()
	b.dropIfEmpty(side, lvl)
}

// DepthEntry is one [price, aggregate_quantity] row of a snapshot.
type DepthEntry struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Snapshot returns up to depth top levels per side (spec.md §4.2, §6).
func (b *Book) Snapshot(depth int) (bids, asks []DepthEntry) {
	collect := func(tree *levels) []DepthEntry {
		out := make([]DepthEntry, 0, depth)
		tree.Scan(func(lvl *Level) bool {
			if len(out) >= depth {
				return false
			}
			out = append(out, DepthEntry{Price: lvl.Price, Quantity: lvl.AggregateQuantity()})
			return true
		})
		return out
	}
	return collect(b.bids), collect(b.asks)
}

// BBO returns the best bid/ask price and aggregate quantity. A nil entry
// means that side is currently empty.
func (b *Book) BBO() (bid, ask *DepthEntry) {
	if lvl := b.Best(common.Buy); lvl != nil {
		bid = &DepthEntry{Price: lvl.Price, Quantity: lvl.AggregateQuantity()}
	}
	if lvl := b.Best(common.Sell); lvl != nil {
		ask = &DepthEntry{Price: lvl.Price, Quantity: lvl.AggregateQuantity()}
	}
	return bid, ask
}

// Levels returns every level on side, best-first. The FOK liquidity
// pre-check walks it on every FOK admission; tests use it as well.
func (b *Book) Levels(side common.Side) []*Level {
	var out []*Level
	b.sideTree(side).Scan(func(lvl *Level) bool {
		out = append(out, lvl)
		return true
	})
	return out
}
