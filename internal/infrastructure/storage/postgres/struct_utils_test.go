package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/domain/orders"
)

func TestExtractDBColumns_EmbeddedBaseEntity(t *testing.T) {
	cols := ExtractDBColumns[inventory.RawMaterial]()

	assert.Equal(t, []string{
		"id", "tenant_id", "version", "created_at", "updated_at",
		"name", "unit", "current_stock", "minimum_alert_level", "shortfall_quantity", "cost_per_unit",
	}, cols)
}

func TestExtractDBColumns_SkipsIgnoredFields(t *testing.T) {
	cols := ExtractDBColumns[orders.Order]()

	assert.Contains(t, cols, "stock_processed_at")
	assert.NotContains(t, cols, "items")
	assert.NotContains(t, cols, "-")
}

func TestStructToMap_RawMaterial(t *testing.T) {
	m := inventory.NewRawMaterial("tenant-a", "Flour", inventory.UnitKilogram, types.MustMoney("1.50"), types.NewQuantity(3))
	m.CurrentStock = types.MustQuantity("12.5")

	got := StructToMap(m)

	assert.Equal(t, m.ID, got["id"])
	assert.Equal(t, "tenant-a", got["tenant_id"])
	assert.Equal(t, 1, got["version"])
	assert.Equal(t, "Flour", got["name"])
	assert.Equal(t, inventory.UnitKilogram, got["unit"])
	assert.Equal(t, types.MustQuantity("12.5"), got["current_stock"])
	assert.True(t, types.MustMoney("1.50").Equal(got["cost_per_unit"].(types.Money)))
	assert.Len(t, got, len(ExtractDBColumns[inventory.RawMaterial]()))
}

func TestStructToMap_NilAndNonStruct(t *testing.T) {
	var m *inventory.RawMaterial
	assert.Nil(t, StructToMap(m))
	assert.Nil(t, StructToMap(42))
}
