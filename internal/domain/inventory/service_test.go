package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/entity"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/events"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/infrastructure/storage/memory"
)

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	svc       *inventory.Service
	published *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	rec := events.NewRecorder()
	return &fixture{
		ctx:       tenant.WithTenantID(context.Background(), "bistro"),
		store:     store,
		svc:       inventory.NewService(store, memory.NewTxManager(store), rec),
		published: rec,
	}
}

func (f *fixture) material(t *testing.T, name, costPerUnit, alert string) *inventory.RawMaterial {
	t.Helper()
	m := inventory.NewRawMaterial("", name, inventory.UnitKilogram, types.MustMoney(costPerUnit), types.MustQuantity(alert))
	require.NoError(t, f.svc.CreateRawMaterial(f.ctx, m))
	return m
}

func (f *fixture) receive(t *testing.T, rm id.ID, qty, unitCost string, at time.Time) *inventory.StockLot {
	t.Helper()
	lot, err := f.svc.ReceiveLot(f.ctx, inventory.ReceiveLotInput{
		RawMaterialID: rm,
		Quantity:      types.MustQuantity(qty),
		UnitCost:      types.MustMoney(unitCost),
		ReceivedAt:    &at,
	})
	require.NoError(t, err)
	return lot
}

func (f *fixture) reload(t *testing.T, rm id.ID) *inventory.RawMaterial {
	t.Helper()
	m, err := f.store.GetRawMaterial(f.ctx, rm)
	require.NoError(t, err)
	return m
}

var day1 = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func TestDeductStockFlourScenario(t *testing.T) {
	f := newFixture(t)
	flour := f.material(t, "Flour", "3.00", "0")
	lot1 := f.receive(t, flour.ID, "5", "2.00", day1)
	lot2 := f.receive(t, flour.ID, "10", "2.50", day1.AddDate(0, 0, 1))
	orderID := id.New()

	d, err := f.svc.DeductStock(f.ctx, flour.ID, types.MustQuantity("8"), orderID)
	require.NoError(t, err)

	assert.True(t, types.MustMoney("17.50").Equal(d.TotalCost), d.TotalCost.String())

	l1, _ := f.store.GetLot(lot1.ID)
	l2, _ := f.store.GetLot(lot2.ID)
	assert.True(t, l1.RemainingQuantity.IsZero())
	assert.Equal(t, types.MustQuantity("7"), l2.RemainingQuantity)
	assert.Equal(t, types.MustQuantity("7"), f.reload(t, flour.ID).CurrentStock)

	movements, err := f.store.ListMovementsByRecorder(f.ctx, orderID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, entity.RecordTypeExpense, movements[0].RecordType)
	assert.True(t, types.MustMoney("10").Equal(movements[0].Amount))
	assert.True(t, types.MustMoney("7.5").Equal(movements[1].Amount))
}

func TestDeductStockShortfallGoesNegativeAndCharges(t *testing.T) {
	f := newFixture(t)
	butter := f.material(t, "Butter", "6.00", "1")
	f.receive(t, butter.ID, "2", "5.00", day1)
	orderID := id.New()

	d, err := f.svc.DeductStock(f.ctx, butter.ID, types.MustQuantity("3.5"), orderID)
	require.NoError(t, err)

	// 2 * 5.00 + 1.5 * 6.00
	assert.True(t, types.MustMoney("19").Equal(d.TotalCost), d.TotalCost.String())
	assert.Equal(t, types.MustQuantity("1.5"), d.Shortfall)

	m := f.reload(t, butter.ID)
	assert.Equal(t, types.MustQuantity("-1.5"), m.CurrentStock)
	assert.Equal(t, types.MustQuantity("1.5"), m.ShortfallQuantity)

	movements, err := f.store.ListMovementsByRecorder(f.ctx, orderID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.True(t, movements[1].IsShortfall())
}

func TestDeductStockPublishesStockCritical(t *testing.T) {
	f := newFixture(t)
	milk := f.material(t, "Milk", "1.00", "4")
	f.receive(t, milk.ID, "10", "1.00", day1)

	_, err := f.svc.DeductStock(f.ctx, milk.ID, types.MustQuantity("5"), id.New())
	require.NoError(t, err)
	assert.Empty(t, f.published.OfType(events.TypeStockCritical))

	_, err = f.svc.DeductStock(f.ctx, milk.ID, types.MustQuantity("1"), id.New())
	require.NoError(t, err)

	critical := f.published.OfType(events.TypeStockCritical)
	require.Len(t, critical, 1)
	ev := critical[0].(events.StockCritical)
	assert.Equal(t, milk.ID, ev.RawMaterialID)
	assert.Equal(t, types.MustQuantity("4"), ev.CurrentStock)
	assert.Equal(t, "bistro", ev.TenantID)
}

func TestDeductStockRejectsNegativeQuantity(t *testing.T) {
	f := newFixture(t)
	salt := f.material(t, "Salt", "1.00", "0")

	_, err := f.svc.DeductStock(f.ctx, salt.ID, types.MustQuantity("-1"), id.New())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestDeductStockUnknownMaterialIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.DeductStock(f.ctx, id.New(), types.MustQuantity("1"), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeductStockRollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	oil := f.material(t, "Oil", "4.00", "0")
	lot := f.receive(t, oil.ID, "10", "3.00", day1)
	f.store.FailNext("RecordMovements", errors.New("connection reset"))

	_, err := f.svc.DeductStock(f.ctx, oil.ID, types.MustQuantity("4"), id.New())
	require.Error(t, err)

	l, _ := f.store.GetLot(lot.ID)
	assert.Equal(t, types.MustQuantity("10"), l.RemainingQuantity)
	assert.Equal(t, types.MustQuantity("10"), f.reload(t, oil.ID).CurrentStock)
}

func TestReceiveLotValidatesAndUpdatesPrice(t *testing.T) {
	f := newFixture(t)
	rice := f.material(t, "Rice", "1.00", "0")

	_, err := f.svc.ReceiveLot(f.ctx, inventory.ReceiveLotInput{
		RawMaterialID: rice.ID,
		Quantity:      0,
		UnitCost:      types.MustMoney("1"),
	})
	require.Error(t, err)

	_, err = f.svc.ReceiveLot(f.ctx, inventory.ReceiveLotInput{
		RawMaterialID:     rice.ID,
		Quantity:          types.MustQuantity("20"),
		UnitCost:          types.MustMoney("1.40"),
		UpdateCostPerUnit: true,
	})
	require.NoError(t, err)

	m := f.reload(t, rice.ID)
	assert.Equal(t, types.MustQuantity("20"), m.CurrentStock)
	assert.True(t, types.MustMoney("1.40").Equal(m.CostPerUnit))
}

func TestAuditHoldsAfterShortfallAndReceipt(t *testing.T) {
	f := newFixture(t)
	eggs := f.material(t, "Eggs", "0.30", "0")
	f.receive(t, eggs.ID, "6", "0.25", day1)

	_, err := f.svc.DeductStock(f.ctx, eggs.ID, types.MustQuantity("10"), id.New())
	require.NoError(t, err)
	f.receive(t, eggs.ID, "12", "0.28", day1.AddDate(0, 0, 2))

	lines, err := f.svc.Audit(f.ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, types.MustQuantity("8"), line.CurrentStock)
	assert.Equal(t, types.MustQuantity("12"), line.LotRemaining)
	assert.Equal(t, types.MustQuantity("4"), line.Shortfall)
	assert.False(t, line.HasDrift())
}

func TestReconcileResetsDriftedCounter(t *testing.T) {
	f := newFixture(t)
	sugar := f.material(t, "Sugar", "1.00", "0")
	f.receive(t, sugar.ID, "10", "1.00", day1)

	// An external write drifts the counter.
	m := f.reload(t, sugar.ID)
	m.CurrentStock = types.MustQuantity("13")
	require.NoError(t, f.store.UpdateStockCounters(f.ctx, m))

	lines, err := f.svc.Audit(f.ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, types.MustQuantity("3"), lines[0].Drift)

	line, err := f.svc.Reconcile(f.ctx, sugar.ID)
	require.NoError(t, err)
	assert.False(t, line.HasDrift())
	assert.Equal(t, types.MustQuantity("10"), f.reload(t, sugar.ID).CurrentStock)
}

func TestServiceRequiresTenant(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Audit(context.Background())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeTenantRequired, appErr.Code)
}

func TestTenantsAreIsolated(t *testing.T) {
	f := newFixture(t)
	flour := f.material(t, "Flour", "1.00", "0")

	other := tenant.WithTenantID(context.Background(), "cafe")
	_, err := f.svc.DeductStock(other, flour.ID, types.MustQuantity("1"), id.New())
	assert.True(t, apperror.IsNotFound(err))
}
