// Package net is the raw-TCP transport for fenrir: a small length-prefixed
// binary protocol generalized from the teacher's original NewOrder/Report
// wire format to the four order types and decimal prices/quantities the
// matching engine now requires (spec.md §4.3, §9). Order cancellation is a
// spec.md §1 non-goal, so the teacher's CancelOrder message is dropped
// rather than adapted (see DESIGN.md).
package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fenrir/internal/common"
	"fenrir/internal/events"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for declared field lengths")
	ErrBadDecimal         = errors.New("malformed decimal field")
)

// MessageType identifies an inbound client message.
type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	LogBook
)

// ReportMessageType identifies an outbound server message.
type ReportMessageType uint8

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
)

// Message format constants. BaseMessageHeaderLen is the 2-byte message-type
// prefix every inbound message carries; NewOrderFixedHeaderLen is the
// fixed portion of a NewOrder message overall, before its variable-length
// tail.
const (
	BaseMessageHeaderLen   = 2
	NewOrderFixedHeaderLen = 2 + 2 + 1 + 1 + 2 + 2 + 1 // base + type, side, symbolLen, priceLen, qtyLen, ownerLen
)

// NewOrderMessage is the decoded wire shape of a client order submission.
type NewOrderMessage struct {
	OrderType common.OrderType
	Side      common.Side
	Symbol    string
	Price     decimal.Decimal
	PriceSet  bool
	Quantity  decimal.Decimal
	Owner     string
}

func parseMessage(msg []byte) (MessageType, []byte, error) {
	if len(msg) < BaseMessageHeaderLen {
		return 0, nil, ErrMessageTooShort
	}
	return MessageType(binary.BigEndian.Uint16(msg[0:2])), msg[2:], nil
}

// parseNewOrder decodes the body of a NewOrder message (the bytes after the
// 2-byte base message-type header):
//
//	[2]  order type
//	[1]  side
//	[1]  symbol length (n1)
//	[2]  price length  (n2, 0 when the order type carries no price)
//	[2]  quantity length (n3)
//	[1]  owner length  (n4)
//	[n1] symbol
//	[n2] price, ASCII decimal
//	[n3] quantity, ASCII decimal
//	[n4] owner
func parseNewOrder(body []byte) (NewOrderMessage, error) {
	const fixed = NewOrderFixedHeaderLen - BaseMessageHeaderLen
	if len(body) < fixed {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	orderType := common.OrderType(binary.BigEndian.Uint16(body[0:2]))
	side := common.Side(body[2])
	symbolLen := int(body[3])
	priceLen := int(binary.BigEndian.Uint16(body[4:6]))
	qtyLen := int(binary.BigEndian.Uint16(body[6:8]))
	ownerLen := int(body[8])

	rest := body[fixed:]
	need := symbolLen + priceLen + qtyLen + ownerLen
	if len(rest) < need {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	off := 0
	symbol := string(rest[off : off+symbolLen])
	off += symbolLen

	var price decimal.Decimal
	var priceSet bool
	if priceLen > 0 {
		p, err := decimal.NewFromString(string(rest[off : off+priceLen]))
		if err != nil {
			return NewOrderMessage{}, fmt.Errorf("%w: price: %v", ErrBadDecimal, err)
		}
		price, priceSet = p, true
	}
	off += priceLen

	qty, err := decimal.NewFromString(string(rest[off : off+qtyLen]))
	if err != nil {
		return NewOrderMessage{}, fmt.Errorf("%w: quantity: %v", ErrBadDecimal, err)
	}
	off += qtyLen

	owner := string(rest[off : off+ownerLen])

	return NewOrderMessage{
		OrderType: orderType,
		Side:      side,
		Symbol:    symbol,
		Price:     price,
		PriceSet:  priceSet,
		Quantity:  qty,
		Owner:     owner,
	}, nil
}

// Report is an execution or error notification pushed back to a client.
type Report struct {
	Type          ReportMessageType
	Side          common.Side
	Symbol        string
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	OrderID       string
	CounterpartID string
	Err           string
	Timestamp     time.Time
}

// Serialize encodes r as:
//
//	[1]  message type
//	[1]  side
//	[1]  symbol length (n1)
//	[2]  price length  (n2)
//	[2]  quantity length (n3)
//	[1]  order id length (n4)
//	[1]  counterparty id length (n5)
//	[4]  error string length (n6)
//	[8]  unix nano timestamp
//	[n1..n6] the fields above, in order
func (r *Report) Serialize() []byte {
	priceStr, qtyStr := "", ""
	if r.Type == ExecutionReport {
		priceStr = r.Price.String()
		qtyStr = r.Quantity.String()
	}

	symbolLen, priceLen, qtyLen := len(r.Symbol), len(priceStr), len(qtyStr)
	orderIDLen, cpIDLen, errLen := len(r.OrderID), len(r.CounterpartID), len(r.Err)

	const fixed = 1 + 1 + 1 + 2 + 2 + 1 + 1 + 4 + 8
	buf := make([]byte, fixed+symbolLen+priceLen+qtyLen+orderIDLen+cpIDLen+errLen)

	buf[0] = byte(r.Type)
	buf[1] = byte(r.Side)
	buf[2] = byte(symbolLen)
	binary.BigEndian.PutUint16(buf[3:5], uint16(priceLen))
	binary.BigEndian.PutUint16(buf[5:7], uint16(qtyLen))
	buf[7] = byte(orderIDLen)
	buf[8] = byte(cpIDLen)
	binary.BigEndian.PutUint32(buf[9:13], uint32(errLen))
	binary.BigEndian.PutUint64(buf[13:21], uint64(r.Timestamp.UnixNano()))

	off := fixed
	off += copy(buf[off:], r.Symbol)
	off += copy(buf[off:], priceStr)
	off += copy(buf[off:], qtyStr)
	off += copy(buf[off:], r.OrderID)
	off += copy(buf[off:], r.CounterpartID)
	copy(buf[off:], r.Err)

	return buf
}

// tradeReports builds the maker and taker execution reports for a trade
// event, each carrying that order's own side rather than the taker's
// aggressor side (spec.md §3: a maker and taker are never on the same
// side, so they need distinct Side values in the report they each see).
func tradeReports(evt events.TradeEvent) (makerReport, takerReport Report) {
	takerSide := common.Buy
	if evt.AggressorSide == common.Sell.String() {
		takerSide = common.Sell
	}
	makerSide := takerSide.Opposite()

	build := func(side common.Side, self, counter string) Report {
		return Report{
			Type:          ExecutionReport,
			Side:          side,
			Symbol:        evt.Symbol,
			Price:         evt.Price,
			Quantity:      evt.Quantity,
			OrderID:       self,
			CounterpartID: counter,
			Timestamp:     evt.Timestamp,
		}
	}
	return build(makerSide, evt.MakerOrderID, evt.TakerOrderID),
		build(takerSide, evt.TakerOrderID, evt.MakerOrderID)
}

func errorReport(err error) Report {
	return Report{
		Type:      ErrorReport,
		Err:       err.Error(),
		Timestamp: time.Now(),
	}
}
