package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

func TestCanCheckout(t *testing.T) {
	o := NewOrder("bistro", "A-1", types.MustMoney("10"))
	require.NoError(t, o.CanCheckout())

	o.MarkPaid(time.Now().UTC())
	err := o.CanCheckout()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)

	o.Status = StatusCancelled
	appErr, ok = apperror.AsAppError(o.CanCheckout())
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrderNotPayable, appErr.Code)
}

func TestMarkPaidBumpsVersion(t *testing.T) {
	o := NewOrder("bistro", "A-1", types.MustMoney("10"))
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	o.MarkPaid(at)

	assert.Equal(t, StatusPaid, o.Status)
	require.NotNil(t, o.PaidAt)
	assert.Equal(t, at, *o.PaidAt)
	assert.Equal(t, 2, o.Version)
}

func TestApplyCosting(t *testing.T) {
	o := NewOrder("bistro", "A-1", types.MustMoney("20"))
	assert.False(t, o.IsStockProcessed())

	o.ApplyCosting(types.MustMoney("17"), time.Now().UTC())

	assert.True(t, o.NetProfit.Equal(types.MustMoney("3")))
	assert.True(t, o.MarginPercent().Equal(types.MustMoney("15")))
	assert.True(t, o.IsStockProcessed())
}

func TestMarginPercentWithoutRevenue(t *testing.T) {
	o := NewOrder("bistro", "A-1", types.Zero())
	o.ApplyCosting(types.MustMoney("4"), time.Now().UTC())

	assert.True(t, o.NetProfit.Equal(types.MustMoney("-4")))
	assert.True(t, o.MarginPercent().IsZero())
}

func TestProductIDsDistinct(t *testing.T) {
	pizza, soda := id.New(), id.New()
	o := NewOrder("bistro", "A-1", types.MustMoney("30"))
	o.AddItem(pizza, 1, types.MustMoney("12"))
	o.AddItem(soda, 2, types.MustMoney("3"))
	o.AddItem(pizza, 1, types.MustMoney("12"))

	assert.Equal(t, []id.ID{pizza, soda}, o.ProductIDs())
	for _, it := range o.Items {
		assert.Equal(t, o.ID, it.OrderID)
	}
}
