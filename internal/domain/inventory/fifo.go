package inventory

import (
	"sort"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// LotDeduction is the portion of a deduction taken from one lot.
type LotDeduction struct {
	LotID    id.ID          `json:"lotId"`
	Quantity types.Quantity `json:"quantity"`
	UnitCost types.Money    `json:"unitCost"`
	Cost     types.Money    `json:"cost"`
}

// Deduction is the outcome of consuming a required quantity of one raw material.
type Deduction struct {
	RawMaterialID id.ID          `json:"rawMaterialId"`
	Required      types.Quantity `json:"required"`
	Covered       types.Quantity `json:"covered"`
	Shortfall     types.Quantity `json:"shortfall"`

	Lots []LotDeduction `json:"lots"`

	// ShortfallUnitCost is the raw material's cost per unit at deduction time.
	ShortfallUnitCost types.Money `json:"shortfallUnitCost"`
	ShortfallCost     types.Money `json:"shortfallCost"`

	TotalCost types.Money `json:"totalCost"`
}

// HasShortfall reports whether lots could not cover the required quantity.
func (d *Deduction) HasShortfall() bool {
	return d.Shortfall.IsPositive()
}

// SortLotsFIFO orders lots by acquisition time, oldest first. Lots acquired at
// the same instant are ordered by id.
func SortLotsFIFO(lots []*StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].CreatedAt.Equal(lots[j].CreatedAt) {
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		}
		return id.Less(lots[i].ID, lots[j].ID)
	})
}

// ConsumeFIFO takes required from lots oldest first, decrementing each lot's
// RemainingQuantity in place. Whatever the lots cannot cover is priced at
// fallbackUnitCost. Exhausted lots are skipped; no lot goes below zero.
func ConsumeFIFO(rawMaterialID id.ID, lots []*StockLot, required types.Quantity, fallbackUnitCost types.Money) Deduction {
	d := Deduction{
		RawMaterialID:     rawMaterialID,
		Required:          required,
		ShortfallUnitCost: fallbackUnitCost,
		ShortfallCost:     types.Zero(),
		TotalCost:         types.Zero(),
	}
	if !required.IsPositive() {
		return d
	}

	SortLotsFIFO(lots)

	stillNeeded := required
	for _, lot := range lots {
		if !stillNeeded.IsPositive() {
			break
		}
		if !lot.IsOpen() {
			continue
		}

		take := types.MinQuantity(lot.RemainingQuantity, stillNeeded)
		cost := take.Cost(lot.UnitCost)

		lot.RemainingQuantity -= take
		stillNeeded -= take

		d.Covered += take
		d.TotalCost = d.TotalCost.Add(cost)
		d.Lots = append(d.Lots, LotDeduction{
			LotID:    lot.ID,
			Quantity: take,
			UnitCost: lot.UnitCost,
			Cost:     cost,
		})
	}

	if stillNeeded.IsPositive() {
		d.Shortfall = stillNeeded
		d.ShortfallCost = stillNeeded.Cost(fallbackUnitCost)
		d.TotalCost = d.TotalCost.Add(d.ShortfallCost)
	}

	return d
}
