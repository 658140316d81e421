package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

var base = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func lot(rawMaterialID id.ID, ageDays int, remaining, unitCost string) *StockLot {
	q := types.MustQuantity(remaining)
	return NewStockLot("t1", rawMaterialID, q, types.MustMoney(unitCost), base.AddDate(0, 0, ageDays))
}

func TestConsumeFIFOTakesOldestLotOnly(t *testing.T) {
	rm := id.New()
	a := lot(rm, 0, "5", "2.00")
	b := lot(rm, 1, "5", "3.00")
	c := lot(rm, 2, "5", "4.00")

	// Pass lots out of order; the engine orders them itself.
	d := ConsumeFIFO(rm, []*StockLot{c, a, b}, types.MustQuantity("3"), types.MustMoney("9"))

	assert.Equal(t, types.MustQuantity("2"), a.RemainingQuantity)
	assert.Equal(t, types.MustQuantity("5"), b.RemainingQuantity)
	assert.Equal(t, types.MustQuantity("5"), c.RemainingQuantity)
	assert.True(t, types.MustMoney("6").Equal(d.TotalCost))
	require.Len(t, d.Lots, 1)
	assert.Equal(t, a.ID, d.Lots[0].LotID)
	assert.False(t, d.HasShortfall())
}

func TestConsumeFIFOPartialLotCoverage(t *testing.T) {
	rm := id.New()
	a := lot(rm, 0, "5", "2.00")
	b := lot(rm, 1, "10", "2.50")

	d := ConsumeFIFO(rm, []*StockLot{a, b}, types.MustQuantity("8"), types.MustMoney("9"))

	assert.True(t, a.RemainingQuantity.IsZero())
	assert.Equal(t, types.MustQuantity("7"), b.RemainingQuantity)
	// 5 * 2.00 + 3 * 2.50
	assert.True(t, types.MustMoney("17.50").Equal(d.TotalCost), d.TotalCost.String())
	assert.Equal(t, types.MustQuantity("8"), d.Covered)
}

func TestConsumeFIFOShortfallChargesFallbackRate(t *testing.T) {
	rm := id.New()
	a := lot(rm, 0, "2", "1.00")
	b := lot(rm, 1, "3", "2.00")

	d := ConsumeFIFO(rm, []*StockLot{a, b}, types.MustQuantity("9"), types.MustMoney("5.00"))

	assert.True(t, a.RemainingQuantity.IsZero())
	assert.True(t, b.RemainingQuantity.IsZero())
	assert.Equal(t, types.MustQuantity("5"), d.Covered)
	assert.Equal(t, types.MustQuantity("4"), d.Shortfall)
	// 2*1 + 3*2 + 4*5
	assert.True(t, types.MustMoney("28").Equal(d.TotalCost), d.TotalCost.String())
	assert.True(t, types.MustMoney("20").Equal(d.ShortfallCost))
}

func TestConsumeFIFOWithoutLotsIsAllShortfall(t *testing.T) {
	rm := id.New()
	d := ConsumeFIFO(rm, nil, types.MustQuantity("1.5"), types.MustMoney("4"))

	assert.Equal(t, types.MustQuantity("1.5"), d.Shortfall)
	assert.True(t, types.MustMoney("6").Equal(d.TotalCost))
	assert.Empty(t, d.Lots)
}

func TestConsumeFIFOZeroRequiredTouchesNothing(t *testing.T) {
	rm := id.New()
	a := lot(rm, 0, "5", "2.00")

	d := ConsumeFIFO(rm, []*StockLot{a}, 0, types.MustMoney("4"))

	assert.Equal(t, types.MustQuantity("5"), a.RemainingQuantity)
	assert.True(t, d.TotalCost.IsZero())
}

func TestConsumeFIFOSkipsExhaustedLots(t *testing.T) {
	rm := id.New()
	empty := lot(rm, 0, "5", "1.00")
	empty.RemainingQuantity = 0
	b := lot(rm, 1, "5", "3.00")

	d := ConsumeFIFO(rm, []*StockLot{empty, b}, types.MustQuantity("1"), types.MustMoney("9"))

	require.Len(t, d.Lots, 1)
	assert.Equal(t, b.ID, d.Lots[0].LotID)
	assert.True(t, empty.RemainingQuantity.IsZero())
}

func TestConsumeFIFONeverDrivesLotNegative(t *testing.T) {
	rm := id.New()
	lots := []*StockLot{
		lot(rm, 0, "1.3333", "1.10"),
		lot(rm, 1, "0.0001", "7.00"),
		lot(rm, 2, "4.25", "0.95"),
	}
	requests := []string{"0.5", "0.9", "0.0001", "2", "7", "0.3333", "1"}

	for _, r := range requests {
		ConsumeFIFO(rm, lots, types.MustQuantity(r), types.MustMoney("3"))
		for _, l := range lots {
			require.False(t, l.RemainingQuantity.IsNegative(), "lot %s went negative", l.ID)
			require.LessOrEqual(t, l.RemainingQuantity, l.InitialQuantity)
		}
	}
	for _, l := range lots {
		assert.True(t, l.RemainingQuantity.IsZero())
	}
}

func TestSortLotsFIFOTieBreaksOnID(t *testing.T) {
	rm := id.New()
	first := lot(rm, 0, "1", "1")
	second := lot(rm, 0, "1", "1")
	if id.Less(second.ID, first.ID) {
		first, second = second, first
	}

	lots := []*StockLot{second, first}
	SortLotsFIFO(lots)

	assert.Equal(t, first.ID, lots[0].ID)
}

func TestStockLotValidate(t *testing.T) {
	rm := id.New()
	l := lot(rm, 0, "5", "2")
	require.NoError(t, l.Validate(context.Background()))

	l.RemainingQuantity = types.MustQuantity("6")
	assert.Error(t, l.Validate(context.Background()))

	neg := lot(rm, 0, "5", "-1")
	assert.Error(t, neg.Validate(context.Background()))
}
