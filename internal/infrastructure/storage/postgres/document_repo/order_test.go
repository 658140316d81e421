package document_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/orders"
)

func TestOrderSelectForUpdate(t *testing.T) {
	repo := NewOrderRepo(nil)
	orderID := id.New()

	sql, args, err := repo.orderSelect("tenant-a", orderID, true).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, tenant_id, version, created_at, updated_at, number, status, total_amount, total_cost, net_profit, paid_at, stock_processed_at "+
			"FROM orders WHERE id = $1 AND tenant_id = $2 FOR UPDATE",
		sql)
	assert.Equal(t, []any{orderID.String(), "tenant-a"}, args)
}

func TestOrderSelectWithoutLock(t *testing.T) {
	repo := NewOrderRepo(nil)

	sql, _, err := repo.orderSelect("tenant-a", id.New(), false).ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "FOR UPDATE")
}

func TestOrderUpdateWritesCostingFields(t *testing.T) {
	repo := NewOrderRepo(nil)
	o := orders.NewOrder("tenant-a", "A-1", types.MustMoney("25.00"))
	o.ApplyCosting(types.MustMoney("17.50"), time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	sql, args, err := repo.orderUpdate("tenant-a", o, map[string]any{
		"total_cost":         o.TotalCost,
		"net_profit":         o.NetProfit,
		"stock_processed_at": o.StockProcessedAt,
	}).ToSql()
	require.NoError(t, err)

	// SetMap sorts keys.
	assert.Equal(t,
		"UPDATE orders SET net_profit = $1, stock_processed_at = $2, total_cost = $3, version = $4, updated_at = $5 WHERE id = $6 AND tenant_id = $7 AND version = $8",
		sql)
	require.Len(t, args, 8)
	assert.True(t, types.MustMoney("7.50").Equal(args[0].(types.Money)))
	assert.Equal(t, 2, args[3])
	assert.Equal(t, 1, args[7])
}
