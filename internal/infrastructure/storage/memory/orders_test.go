package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/orders"
)

func TestSaveStatusRejectsStaleVersion(t *testing.T) {
	store := New()
	ctx := tenant.WithTenantID(context.Background(), "bistro")
	o := orders.NewOrder("", "A-1", types.MustMoney("10"))
	require.NoError(t, store.Create(ctx, o))

	first, err := store.GetWithItems(ctx, o.ID)
	require.NoError(t, err)
	second, err := store.GetWithItems(ctx, o.ID)
	require.NoError(t, err)

	first.MarkPaid(time.Now().UTC())
	require.NoError(t, store.SaveStatus(ctx, first))

	second.MarkPaid(time.Now().UTC())
	err = store.SaveStatus(ctx, second)
	assert.True(t, apperror.IsConcurrentModification(err), err)

	stored, err := store.GetWithItems(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
}

func TestSaveCostingUnknownOrder(t *testing.T) {
	store := New()
	ctx := tenant.WithTenantID(context.Background(), "bistro")
	o := orders.NewOrder("bistro", "A-1", types.MustMoney("10"))
	o.ApplyCosting(types.MustMoney("4"), time.Now().UTC())

	assert.True(t, apperror.IsNotFound(store.SaveCosting(ctx, o)))
}
