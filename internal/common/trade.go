package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is an immutable value object produced by a match. Price always
// equals the maker's resting price at match time; AggressorSide is the
// taker's side (spec.md §3).
type Trade struct {
	ID            string
	Symbol        string
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	AggressorSide Side
	MakerOrderID  string
	TakerOrderID  string
	Timestamp     time.Time
}

// NewTrade stamps a fresh id and timestamp for a maker/taker match.
func NewTrade(symbol string, price, qty decimal.Decimal, aggressor Side, makerID, takerID string) Trade {
	return Trade{
		ID:            uuid.NewString(),
		Symbol:        symbol,
		Price:         price,
		Quantity:      qty,
		AggressorSide: aggressor,
		MakerOrderID:  makerID,
		TakerOrderID:  takerID,
		Timestamp:     time.Now(),
	}
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"Trade{id=%s symbol=%s price=%s qty=%s aggressor=%s maker=%s taker=%s}",
		t.ID, t.Symbol, t.Price, t.Quantity, t.AggressorSide, t.MakerOrderID, t.TakerOrderID,
	)
}
