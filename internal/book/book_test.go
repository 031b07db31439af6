package book_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/book"
	"fenrir/internal/common"
)

func mustDecimal(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func restingOrder(symbol string, side common.Side, price, qty string) *common.Order {
	return common.New(symbol, side, common.Limit, mustDecimal(qty), mustDecimal(price), "owner")
}

func TestBook_InsertOrdersFIFOWithinLevel(t *testing.T) {
	b := book.New("BTC")
	o1 := restingOrder("BTC", common.Buy, "100", "1")
	o2 := restingOrder("BTC", common.Buy, "100", "2")

	b.Insert(o1)
	b.Insert(o2)

	lvl := b.Best(common.Buy)
	require.NotNil(t, lvl)
	require.Len(t, lvl.Orders(), 2)
	assert.Equal(t, o1.ID, lvl.Orders()[0].ID, "insertion order must be preserved")
	assert.Equal(t, o2.ID, lvl.Orders()[1].ID)
}

func TestBook_BidsDescendingAsksAscending(t *testing.T) {
	b := book.New("BTC")
	b.Insert(restingOrder("BTC", common.Buy, "99", "1"))
	b.Insert(restingOrder("BTC", common.Buy, "101", "1"))
	b.Insert(restingOrder("BTC", common.Sell, "105", "1"))
	b.Insert(restingOrder("BTC", common.Sell, "103", "1"))

	bids := b.Levels(common.Buy)
	require.Len(t, bids, 2)
	assert.True(t, bids[0].Price.Equal(mustDecimal("101")), "highest bid first")
	assert.True(t, bids[1].Price.Equal(mustDecimal("99")))

	asks := b.Levels(common.Sell)
	require.Len(t, asks, 2)
	assert.True(t, asks[0].Price.Equal(mustDecimal("103")), "lowest ask first")
	assert.True(t, asks[1].Price.Equal(mustDecimal("105")))
}

func TestBook_RemoveDropsEmptyLevel(t *testing.T) {
	b := book.New("BTC")
	o := restingOrder("BTC", common.Buy, "100", "1")
	b.Insert(o)

	b.Remove(o.ID)

	assert.Nil(t, b.Best(common.Buy))
}

func TestBook_SnapshotRespectsDepthAndAggregates(t *testing.T) {
	b := book.New("BTC")
	b.Insert(restingOrder("BTC", common.Buy, "100", "1"))
	b.Insert(restingOrder("BTC", common.Buy, "100", "2"))
	b.Insert(restingOrder("BTC", common.Buy, "99", "5"))
	b.Insert(restingOrder("BTC", common.Buy, "98", "5"))

	bids, _ := b.Snapshot(2)
	require.Len(t, bids, 2)
	assert.True(t, bids[0].Price.Equal(mustDecimal("100")))
	assert.True(t, bids[0].Quantity.Equal(mustDecimal("3")))
	assert.True(t, bids[1].Price.Equal(mustDecimal("99")))
}

func TestLevel_ReleaseHeadIfFilledRemovesOnlyExhaustedHead(t *testing.T) {
	b := book.New("BTC")
	o1 := restingOrder("BTC", common.Sell, "100", "1")
	o2 := restingOrder("BTC", common.Sell, "100", "1")
	b.Insert(o1)
	b.Insert(o2)

	lvl := b.Best(common.Sell)
	o1.Fill(mustDecimal("1"))
	b.ReleaseHeadIfFilled(common.Sell, lvl)

	require.Len(t, lvl.Orders(), 1)
	assert.Equal(t, o2.ID, lvl.Head().ID)
}
