// Package engine is the Engine Facade (spec.md §4.4): it owns every
// symbol's order book, serializes admission per symbol, and drives
// persistence and event publication around the matching core.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/rs/zerolog"

	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/events"
	"fenrir/internal/persistence"
)

const (
	// DefaultSnapshotDepth is the default depth for Snapshot (spec.md §6).
	DefaultSnapshotDepth = 10
	// DefaultRecentTrades is the default limit for RecentTrades (spec.md §6).
	DefaultRecentTrades = 50
	// DefaultRecentOrders is the default limit for RecentOrders (spec.md §6).
	DefaultRecentOrders = 100
)

// symbolGuard pairs an order book with the single mutex that serializes
// every submit against it (spec.md §5: single-writer per symbol).
type symbolGuard struct {
	mu   sync.Mutex
	book *book.Book
}

// Engine owns the symbol->book mapping, created lazily on first reference,
// and wires every submission through persistence and the event publisher.
type Engine struct {
	log       zerolog.Logger
	persist   persistence.Adapter
	publisher *events.Publisher

	booksMu sync.Mutex
	books   map[string]*symbolGuard
}

// New constructs an Engine value. It holds no process-wide globals; the
// caller is expected to create one Engine at startup and pass it into
// every transport handler (spec.md §9).
func New(log zerolog.Logger, persist persistence.Adapter, publisher *events.Publisher) *Engine {
	return &Engine{
		log:       log.With().Str("component", "engine").Logger(),
		persist:   persist,
		publisher: publisher,
		books:     make(map[string]*symbolGuard),
	}
}

// SubmitRequest is the decoded shape of the "submit order" external
// interface (spec.md §6). PriceSet distinguishes an absent market-order
// price from an accidental zero.
type SubmitRequest struct {
	Symbol   string
	Type     common.OrderType
	Side     common.Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
	PriceSet bool
	Owner    string
}

// SubmitResult is the response shape of "submit order" (spec.md §6).
type SubmitResult struct {
	OrderID   string
	Status    common.Status
	Filled    decimal.Decimal
	Remaining decimal.Decimal
	Trades    []common.Trade
}

func (e *Engine) guardFor(symbol string) *symbolGuard {
	e.booksMu.Lock()
	defer e.booksMu.Unlock()

	g, ok := e.books[symbol]
	if !ok {
		g = &symbolGuard{book: book.New(symbol)}
		e.books[symbol] = g
	}
	return g
}

// matchAndPublishLocked runs admit and every event-publication for the
// resulting state change inside the symbol's guard, so that two Submit
// calls for the same symbol cannot interleave their Publish calls out of
// mutation order (spec.md §4.5, §5; see events.Publisher.Publish). A panic
// here means an invariant the book depends on was violated mid-mutation;
// it is logged as an InternalError and re-raised rather than swallowed,
// since the guard cannot be trusted to unlock onto a consistent book
// (spec.md §7).
func (e *Engine) matchAndPublishLocked(guard *symbolGuard, symbol string, order *common.Order) []common.Trade {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Err(wrapError(InternalError, "panic during match", fmt.Errorf("%v", r))).
				Str("symbol", symbol).Msg("matching core panicked, re-raising")
			panic(r)
		}
	}()

	trades := admit(guard.book, order)
	snapshotBids, snapshotAsks := guard.book.Snapshot(DefaultSnapshotDepth)
	bidEntry, askEntry := guard.book.BBO()

	for _, t := range trades {
		e.publisher.Publish(events.Trade, events.NewTradeEvent(t))
	}
	e.publisher.Publish(events.Book, snapshotEvent(symbol, snapshotBids, snapshotAsks))
	e.publisher.Publish(events.BBO, bboEvent(symbol, bidEntry, askEntry))

	return trades
}

// Submit runs the full admission pipeline for req (spec.md §4.4 steps 1-7).
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := validate(req.Type, req.Side, req.Quantity, req.Price, req.PriceSet); err != nil {
		return nil, err
	}

	order := common.New(req.Symbol, req.Side, req.Type, req.Quantity, req.Price, req.Owner)

	if err := e.persist.InsertOrder(ctx, order); err != nil {
		e.log.Warn().Err(wrapError(PersistenceFailure, "insert new order", err)).
			Str("order_id", order.ID).Msg("failed to persist new order")
	}

	// Publish must happen inside the symbol's guard, not after releasing it:
	// two concurrent Submit calls for the same symbol already serialize their
	// matching here, but publishing outside the guard would let their
	// Publish calls interleave, breaking the within-symbol delivery-order
	// guarantee events.Publisher.Publish depends on (spec.md §4.5, §5).
	guard := e.guardFor(req.Symbol)
	trades := e.matchAndPublishLocked(guard, req.Symbol, order)

	if err := e.persist.UpsertOrder(ctx, order.ID, order); err != nil {
		e.log.Warn().Err(wrapError(PersistenceFailure, "upsert order final state", err)).
			Str("order_id", order.ID).Msg("failed to persist order final state")
	}
	for _, t := range trades {
		if err := e.persist.InsertTrade(ctx, t); err != nil {
			e.log.Warn().Err(wrapError(PersistenceFailure, "insert trade", err)).
				Str("trade_id", t.ID).Msg("failed to persist trade")
		}
	}

	return &SubmitResult{
		OrderID:   order.ID,
		Status:    order.Status,
		Filled:    order.Filled(),
		Remaining: order.Remaining,
		Trades:    trades,
	}, nil
}

// Snapshot returns up to depth top levels per side for symbol (spec.md §6).
// depth<=0 selects DefaultSnapshotDepth.
func (e *Engine) Snapshot(symbol string, depth int) events.BookSnapshot {
	if depth <= 0 {
		depth = DefaultSnapshotDepth
	}
	guard := e.guardFor(symbol)
	guard.mu.Lock()
	bids, asks := guard.book.Snapshot(depth)
	guard.mu.Unlock()
	return snapshotEvent(symbol, bids, asks)
}

// BBO returns the current best bid/offer for symbol (spec.md §6).
func (e *Engine) BBO(symbol string) events.BBOEvent {
	guard := e.guardFor(symbol)
	guard.mu.Lock()
	bid, ask := guard.book.BBO()
	guard.mu.Unlock()
	return bboEvent(symbol, bid, ask)
}

// RecentTrades delegates to the persistence adapter's read path
// (spec.md §4.4; out of the matching-engine core per spec.md §1).
func (e *Engine) RecentTrades(ctx context.Context, symbol string, limit int) ([]common.Trade, error) {
	if limit <= 0 {
		limit = DefaultRecentTrades
	}
	reader, ok := e.persist.(persistence.Reader)
	if !ok {
		return nil, nil
	}
	return reader.RecentTrades(ctx, symbol, limit)
}

// RecentOrders delegates to the persistence adapter's read path. An empty
// symbol matches every symbol (spec.md §6).
func (e *Engine) RecentOrders(ctx context.Context, symbol string, limit int) ([]common.Order, error) {
	if limit <= 0 {
		limit = DefaultRecentOrders
	}
	reader, ok := e.persist.(persistence.Reader)
	if !ok {
		return nil, nil
	}
	return reader.RecentOrders(ctx, symbol, limit)
}

func snapshotEvent(symbol string, bids, asks []book.DepthEntry) events.BookSnapshot {
	toRows := func(entries []book.DepthEntry) []events.DepthRow {
		rows := make([]events.DepthRow, len(entries))
		for i, e := range entries {
			rows[i] = events.DepthRow{Price: e.Price, Quantity: e.Quantity}
		}
		return rows
	}
	return events.BookSnapshot{
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		Bids:      toRows(bids),
		Asks:      toRows(asks),
	}
}

func bboEvent(symbol string, bid, ask *book.DepthEntry) events.BBOEvent {
	evt := events.BBOEvent{Symbol: symbol, Timestamp: time.Now().UTC()}
	if bid != nil {
		evt.BestBid = &bid.Price
		evt.BestBidQty = &bid.Quantity
	}
	if ask != nil {
		evt.BestAsk = &ask.Price
		evt.BestAskQty = &ask.Quantity
	}
	return evt
}
