package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"fenrir/internal/common"
)

// Reader is the read path the Engine Facade's recent_trades/recent_orders
// delegate to (spec.md §4.4). It is not part of the core Adapter contract
// (spec.md §4.6 describes only the write side) but every adapter the
// engine is constructed with in this repo also satisfies it, since there
// is no other consumer of the journal.
type Reader interface {
	RecentTrades(ctx context.Context, symbol string, limit int) ([]common.Trade, error)
	RecentOrders(ctx context.Context, symbol string, limit int) ([]common.Order, error)
}

// Memory is the default adapter: an in-process journal guarded by a mutex.
// spec.md §1 explicitly makes "no recovery from the persistence sink on
// restart" a non-goal, so an in-memory sink is a conforming implementation,
// not a stand-in for a missing one.
type Memory struct {
	log zerolog.Logger

	mu     sync.Mutex
	orders map[string]*common.Order
	trades []common.Trade
}

// NewMemory constructs an empty in-memory journal.
func NewMemory(log zerolog.Logger) *Memory {
	return &Memory{
		log:    log.With().Str("component", "persistence.memory").Logger(),
		orders: make(map[string]*common.Order),
	}
}

func (m *Memory) InsertOrder(_ context.Context, order *common.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *Memory) UpsertOrder(_ context.Context, orderID string, order *common.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	m.orders[orderID] = &cp
	return nil
}

func (m *Memory) InsertTrade(_ context.Context, trade common.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.trades {
		if existing.ID == trade.ID {
			return nil
		}
	}
	m.trades = append(m.trades, trade)
	return nil
}

// RecentTrades returns up to limit trades for symbol, newest first
// (spec.md §6).
func (m *Memory) RecentTrades(_ context.Context, symbol string, limit int) ([]common.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]common.Trade, 0, limit)
	for _, t := range m.trades {
		if t.Symbol == symbol {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// RecentOrders returns up to limit orders, optionally filtered by symbol,
// newest first. An empty symbol matches every symbol (spec.md §6).
func (m *Memory) RecentOrders(_ context.Context, symbol string, limit int) ([]common.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]common.Order, 0, limit)
	for _, o := range m.orders {
		if symbol == "" || o.Symbol == symbol {
			matched = append(matched, *o)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SubmittedAt.After(matched[j].SubmittedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
