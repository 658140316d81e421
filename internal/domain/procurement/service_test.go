package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/inventory"
)

func material(name string, current, alert int64, cost string) *inventory.RawMaterial {
	m := inventory.NewRawMaterial("t1", name, inventory.UnitKilogram, types.MustMoney(cost), types.NewQuantity(alert))
	m.CurrentStock = types.NewQuantity(current)
	return m
}

type stubRepo struct {
	materials []*inventory.RawMaterial
	calls     int
}

func (r *stubRepo) ListBelowAlertLevel(_ context.Context) ([]*inventory.RawMaterial, error) {
	r.calls++
	return r.materials, nil
}

type mapCache struct {
	values map[string]any
}

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	*(dest.(*[]SuggestedOrder)) = v.([]SuggestedOrder)
	return true, nil
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func TestBuildSuggestionsTargetIsTwiceAlertLevel(t *testing.T) {
	got := BuildSuggestions([]*inventory.RawMaterial{material("Flour", 5, 20, "2.00")})

	require.Len(t, got, 1)
	assert.Equal(t, types.NewQuantity(40), got[0].TargetStock)
	assert.Equal(t, types.NewQuantity(35), got[0].SuggestedQuantity)
	assert.True(t, types.MustMoney("70").Equal(got[0].EstimatedCost))
}

func TestBuildSuggestionsZeroAlertFallsBackToDefaultTarget(t *testing.T) {
	got := BuildSuggestions([]*inventory.RawMaterial{material("Salt", 0, 0, "1.00")})

	require.Len(t, got, 1)
	assert.Equal(t, DefaultTargetStock, got[0].TargetStock)
	assert.Equal(t, types.NewQuantity(10), got[0].SuggestedQuantity)
}

func TestBuildSuggestionsNegativeStockAddsDebt(t *testing.T) {
	got := BuildSuggestions([]*inventory.RawMaterial{material("Milk", -3, 4, "1.50")})

	require.Len(t, got, 1)
	assert.Equal(t, types.NewQuantity(11), got[0].SuggestedQuantity)
}

func TestBuildSuggestionsExcludesStockAboveAlertLevel(t *testing.T) {
	got := BuildSuggestions([]*inventory.RawMaterial{
		material("Rice", 25, 10, "1.00"),
		material("Oil", 12, 0, "3.00"),
	})
	assert.Empty(t, got)
}

func TestBuildSuggestionsAtAlertLevel(t *testing.T) {
	got := BuildSuggestions([]*inventory.RawMaterial{material("Sugar", 10, 10, "1.00")})

	require.Len(t, got, 1)
	assert.Equal(t, types.NewQuantity(20), got[0].TargetStock)
	assert.Equal(t, types.NewQuantity(10), got[0].SuggestedQuantity)
}

func TestBuildSuggestionsSortedByEstimatedCostDesc(t *testing.T) {
	got := BuildSuggestions([]*inventory.RawMaterial{
		material("Cheap", 0, 5, "1.00"),  // 10 * 1
		material("Pricey", 0, 5, "9.00"), // 10 * 9
		material("Mid", 0, 5, "4.00"),    // 10 * 4
	})

	require.Len(t, got, 3)
	assert.Equal(t, "Pricey", got[0].Name)
	assert.Equal(t, "Mid", got[1].Name)
	assert.Equal(t, "Cheap", got[2].Name)
}

func TestGetSuggestedOrdersUsesCache(t *testing.T) {
	repo := &stubRepo{materials: []*inventory.RawMaterial{material("Flour", 5, 20, "2.00")}}
	cache := &mapCache{values: map[string]any{}}
	svc := NewService(repo, cache, time.Minute)
	ctx := tenant.WithTenantID(context.Background(), "t1")

	first, err := svc.GetSuggestedOrders(ctx)
	require.NoError(t, err)
	second, err := svc.GetSuggestedOrders(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first, second)
}

func TestGetSuggestedOrdersRequiresTenant(t *testing.T) {
	svc := NewService(&stubRepo{}, nil, 0)
	_, err := svc.GetSuggestedOrders(context.Background())
	require.Error(t, err)
}
