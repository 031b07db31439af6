// Package persistence defines the journal contract the matching engine
// writes through (spec.md §4.6) and a default in-memory implementation.
// The adapter is an append/upsert sink with at-least-once semantics; no
// read path is required of it, and a failed write must never roll back an
// in-memory match (spec.md §7, PersistenceFailure).
package persistence

import (
	"context"

	"fenrir/internal/common"
)

// Adapter is the persistence contract the Engine Facade writes through.
// All three operations are expected to be idempotent on their id, so
// at-least-once delivery from a retrying caller is safe.
type Adapter interface {
	// InsertOrder is idempotent on order.ID.
	InsertOrder(ctx context.Context, order *common.Order) error
	// UpsertOrder replaces the stored state for orderID.
	UpsertOrder(ctx context.Context, orderID string, order *common.Order) error
	// InsertTrade is idempotent on trade.ID.
	InsertTrade(ctx context.Context, trade common.Trade) error
}
