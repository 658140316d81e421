package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/entity"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/inventory"
)

const rawMaterialCols = "id, tenant_id, version, created_at, updated_at, name, unit, " +
	"current_stock, minimum_alert_level, shortfall_quantity, cost_per_unit"

func TestRawMaterialSelectFiltersTenant(t *testing.T) {
	repo := NewStockRepo(nil)

	sql, args, err := repo.rawMaterialSelect("tenant-a").ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT "+rawMaterialCols+" FROM raw_materials WHERE tenant_id = $1", sql)
	assert.Equal(t, []any{"tenant-a"}, args)
}

func TestBelowAlertLevelSelect(t *testing.T) {
	repo := NewStockRepo(nil)

	sql, args, err := repo.belowAlertLevelSelect("tenant-a").ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT "+rawMaterialCols+" FROM raw_materials WHERE tenant_id = $1 AND current_stock <= minimum_alert_level ORDER BY name, id",
		sql)
	assert.Equal(t, []any{"tenant-a"}, args)
}

func TestOpenLotsSelectLocksInFIFOOrder(t *testing.T) {
	repo := NewStockRepo(nil)
	rawMaterialID := id.New()

	sql, args, err := repo.openLotsSelect("tenant-a", rawMaterialID).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM stock_lots WHERE raw_material_id = $1 AND tenant_id = $2 AND remaining_quantity > $3")
	assert.Contains(t, sql, "ORDER BY created_at, id FOR UPDATE")
	// id.ID is a driver.Valuer, so squirrel binds it as its string form.
	assert.Equal(t, []any{rawMaterialID.String(), "tenant-a", 0}, args)
}

func TestStockCountersUpdate(t *testing.T) {
	repo := NewStockRepo(nil)
	m := inventory.NewRawMaterial("tenant-a", "Flour", inventory.UnitKilogram, types.MustMoney("1.50"), 0)
	m.CurrentStock = types.NewQuantity(-1)
	m.ShortfallQuantity = types.NewQuantity(1)

	sql, args, err := repo.stockCountersUpdate("tenant-a", m).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE raw_materials SET current_stock = $1, shortfall_quantity = $2, cost_per_unit = $3, version = $4, updated_at = $5 WHERE id = $6 AND tenant_id = $7",
		sql)
	require.Len(t, args, 7)
	assert.Equal(t, types.NewQuantity(-1), args[0])
	assert.Equal(t, types.NewQuantity(1), args[1])
	assert.Equal(t, m.ID.String(), args[5])
	assert.Equal(t, "tenant-a", args[6])
}

func TestMovementsInsertColumnOrder(t *testing.T) {
	repo := NewStockRepo(nil)
	lotID := id.New()
	m := entity.NewStockMovement("tenant-a", id.New(), entity.RecorderOrder, entity.RecordTypeExpense,
		id.New(), &lotID, types.NewQuantity(2), types.MustMoney("2.50"))
	m.CreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	sql, args, err := repo.movementsInsert([]entity.StockMovement{m}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO stock_movements (line_id,tenant_id,recorder_id,recorder_type,record_type,raw_material_id,lot_id,quantity,unit_cost,amount,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)",
		sql)
	assert.Equal(t, movementRow(m), args)
}
