package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/id"
)

func TestUnitCostSelectJoinsWithinTenant(t *testing.T) {
	repo := NewRecipeRepo(nil)
	p1, p2 := id.New(), id.New()

	sql, args, err := repo.unitCostSelect("tenant-a", []id.ID{p1, p2}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT ri.product_id, SUM(ri.amount * rm.cost_per_unit / 10000) AS unit_cost "+
			"FROM recipe_items ri "+
			"JOIN raw_materials rm ON rm.id = ri.raw_material_id AND rm.tenant_id = ri.tenant_id "+
			"WHERE ri.product_id IN ($1,$2) AND ri.tenant_id = $3 "+
			"GROUP BY ri.product_id",
		sql)
	assert.Equal(t, []any{p1, p2, "tenant-a"}, args)
}

func TestItemsSelect(t *testing.T) {
	repo := NewRecipeRepo(nil)
	p1 := id.New()

	sql, args, err := repo.itemsSelect("tenant-a", []id.ID{p1}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, tenant_id, product_id, raw_material_id, amount FROM recipe_items "+
			"WHERE product_id IN ($1) AND tenant_id = $2 ORDER BY product_id, raw_material_id",
		sql)
	assert.Equal(t, []any{p1, "tenant-a"}, args)
}
