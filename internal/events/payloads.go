package events

import (
	"time"

	"github.com/shopspring/decimal"

	"fenrir/internal/common"
)

// DepthRow is one [price, aggregate_quantity] row of a book snapshot event.
type DepthRow struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// BookSnapshot is the payload for the Book channel (spec.md §6).
type BookSnapshot struct {
	Symbol    string     `json:"symbol"`
	Timestamp time.Time  `json:"timestamp"`
	Bids      []DepthRow `json:"bids"`
	Asks      []DepthRow `json:"asks"`
}

// TradeEvent is the payload for the Trade channel: the same shape as a
// recent-trades row (spec.md §6).
type TradeEvent struct {
	TradeID       string          `json:"trade_id"`
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	AggressorSide string          `json:"aggressor_side"`
	MakerOrderID  string          `json:"maker_order_id"`
	TakerOrderID  string          `json:"taker_order_id"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewTradeEvent projects a common.Trade into its wire shape.
func NewTradeEvent(t common.Trade) TradeEvent {
	return TradeEvent{
		TradeID:       t.ID,
		Symbol:        t.Symbol,
		Price:         t.Price,
		Quantity:      t.Quantity,
		AggressorSide: t.AggressorSide.String(),
		MakerOrderID:  t.MakerOrderID,
		TakerOrderID:  t.TakerOrderID,
		Timestamp:     t.Timestamp,
	}
}

// BBOEvent is the payload for the BBO channel. Missing side fields are
// nil when that side of the book is empty (spec.md §6).
type BBOEvent struct {
	Symbol         string           `json:"symbol"`
	BestBid        *decimal.Decimal `json:"best_bid,omitempty"`
	BestBidQty     *decimal.Decimal `json:"best_bid_quantity,omitempty"`
	BestAsk        *decimal.Decimal `json:"best_ask,omitempty"`
	BestAskQty     *decimal.Decimal `json:"best_ask_quantity,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}
