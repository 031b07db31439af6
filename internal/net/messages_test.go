package net

import (
	"encoding/binary"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/common"
	"fenrir/internal/events"
)

func encodeNewOrder(t *testing.T, orderType common.OrderType, side common.Side, symbol, price, qty, owner string) []byte {
	t.Helper()
	fixed := NewOrderFixedHeaderLen - BaseMessageHeaderLen
	buf := make([]byte, fixed+len(symbol)+len(price)+len(qty)+len(owner))

	binary.BigEndian.PutUint16(buf[0:2], uint16(orderType))
	buf[2] = byte(side)
	buf[3] = byte(len(symbol))
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(price)))
	binary.BigEndian.PutUint16(buf[6:8], uint16(len(qty)))
	buf[8] = byte(len(owner))

	off := fixed
	off += copy(buf[off:], symbol)
	off += copy(buf[off:], price)
	off += copy(buf[off:], qty)
	copy(buf[off:], owner)

	return buf
}

func TestParseNewOrder_RoundTrip(t *testing.T) {
	body := encodeNewOrder(t, common.Limit, common.Buy, "BTC", "100.5", "1.25", "alice")

	m, err := parseNewOrder(body)
	require.NoError(t, err)

	assert.Equal(t, common.Limit, m.OrderType)
	assert.Equal(t, common.Buy, m.Side)
	assert.Equal(t, "BTC", m.Symbol)
	assert.True(t, m.PriceSet)
	assert.True(t, m.Price.Equal(decimal.RequireFromString("100.5")))
	assert.True(t, m.Quantity.Equal(decimal.RequireFromString("1.25")))
	assert.Equal(t, "alice", m.Owner)
}

func TestParseNewOrder_MarketHasNoPrice(t *testing.T) {
	body := encodeNewOrder(t, common.Market, common.Sell, "ETH", "", "3", "bob")

	m, err := parseNewOrder(body)
	require.NoError(t, err)
	assert.False(t, m.PriceSet)
}

func TestParseNewOrder_TooShortIsRejected(t *testing.T) {
	_, err := parseNewOrder([]byte{0, 0, 0})
	require.ErrorIs(t, err, ErrMessageTooShort)
}

func TestReport_SerializeStartsWithMessageType(t *testing.T) {
	r := Report{
		Type:          ExecutionReport,
		Symbol:        "BTC",
		Price:         decimal.RequireFromString("100"),
		Quantity:      decimal.RequireFromString("1"),
		OrderID:       "order-1",
		CounterpartID: "order-2",
	}
	buf := r.Serialize()
	assert.Equal(t, byte(ExecutionReport), buf[0])
	assert.NotEmpty(t, buf)
}

func TestTradeReports_EachSideGetsItsOwnSide(t *testing.T) {
	evt := events.TradeEvent{
		Symbol:        "BTC",
		Price:         decimal.RequireFromString("100"),
		Quantity:      decimal.RequireFromString("1"),
		AggressorSide: common.Sell.String(),
		MakerOrderID:  "maker-1",
		TakerOrderID:  "taker-1",
	}

	makerReport, takerReport := tradeReports(evt)

	assert.Equal(t, common.Buy, makerReport.Side, "maker is on the opposite side of the aggressor")
	assert.Equal(t, "maker-1", makerReport.OrderID)
	assert.Equal(t, "taker-1", makerReport.CounterpartID)

	assert.Equal(t, common.Sell, takerReport.Side, "taker's side is the aggressor side")
	assert.Equal(t, "taker-1", takerReport.OrderID)
	assert.Equal(t, "maker-1", takerReport.CounterpartID)
}
