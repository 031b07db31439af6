package persistence_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/common"
	"fenrir/internal/persistence"
)

func TestMemory_InsertAndUpsertOrderIsIdempotentOnID(t *testing.T) {
	m := persistence.NewMemory(zerolog.Nop())
	ctx := context.Background()

	o := common.New("BTC", common.Buy, common.Limit, decimal.NewFromInt(1), decimal.NewFromInt(100), "alice")
	require.NoError(t, m.InsertOrder(ctx, o))

	o.Status = common.Filled
	require.NoError(t, m.UpsertOrder(ctx, o.ID, o))

	orders, err := m.RecentOrders(ctx, "BTC", 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, common.Filled, orders[0].Status)
}

func TestMemory_RecentTradesSortedDescendingAndFiltered(t *testing.T) {
	m := persistence.NewMemory(zerolog.Nop())
	ctx := context.Background()

	t1 := common.NewTrade("BTC", decimal.NewFromInt(100), decimal.NewFromInt(1), common.Buy, "m1", "t1")
	t2 := common.NewTrade("ETH", decimal.NewFromInt(200), decimal.NewFromInt(1), common.Sell, "m2", "t2")
	t3 := common.NewTrade("BTC", decimal.NewFromInt(101), decimal.NewFromInt(1), common.Buy, "m3", "t3")

	require.NoError(t, m.InsertTrade(ctx, t1))
	require.NoError(t, m.InsertTrade(ctx, t2))
	require.NoError(t, m.InsertTrade(ctx, t3))

	trades, err := m.RecentTrades(ctx, "BTC", 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.False(t, trades[0].Timestamp.Before(trades[1].Timestamp), "newest trade first")
	for _, tr := range trades {
		assert.Equal(t, "BTC", tr.Symbol)
	}
}

func TestMemory_RecentOrdersEmptySymbolMatchesAll(t *testing.T) {
	m := persistence.NewMemory(zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, m.InsertOrder(ctx, common.New("BTC", common.Buy, common.Limit, decimal.NewFromInt(1), decimal.NewFromInt(1), "a")))
	require.NoError(t, m.InsertOrder(ctx, common.New("ETH", common.Buy, common.Limit, decimal.NewFromInt(1), decimal.NewFromInt(1), "b")))

	orders, err := m.RecentOrders(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
