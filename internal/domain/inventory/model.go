// Package inventory provides the stock ledger: raw materials with a running
// stock counter and the purchase lots that are consumed first-in first-out.
package inventory

import (
	"context"
	"time"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/entity"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// Unit is the unit of measure a raw material is stocked in.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLiter      Unit = "l"
	UnitMilliliter Unit = "ml"
	UnitPiece      Unit = "pcs"
)

// IsValid reports whether u is a known unit.
func (u Unit) IsValid() bool {
	switch u {
	case UnitKilogram, UnitGram, UnitLiter, UnitMilliliter, UnitPiece:
		return true
	}
	return false
}

// RawMaterial is an ingredient tracked in stock.
//
// CurrentStock is a running counter decremented by the full required amount
// on every deduction, so it may go negative. ShortfallQuantity accumulates
// the part of those deductions that no lot could cover. Together they keep
// CurrentStock == sum(lot remaining) - ShortfallQuantity; see Audit.
type RawMaterial struct {
	entity.BaseEntity

	Name string `db:"name" json:"name"`
	Unit Unit   `db:"unit" json:"unit"`

	CurrentStock      types.Quantity `db:"current_stock" json:"currentStock"`
	MinimumAlertLevel types.Quantity `db:"minimum_alert_level" json:"minimumAlertLevel"`
	ShortfallQuantity types.Quantity `db:"shortfall_quantity" json:"shortfallQuantity"`

	// CostPerUnit is the market price used when lots run out.
	CostPerUnit types.Money `db:"cost_per_unit" json:"costPerUnit"`
}

// NewRawMaterial creates a raw material with zero stock.
func NewRawMaterial(tenantID, name string, unit Unit, costPerUnit types.Money, alertLevel types.Quantity) *RawMaterial {
	return &RawMaterial{
		BaseEntity:        entity.NewBaseEntity(tenantID),
		Name:              name,
		Unit:              unit,
		CostPerUnit:       costPerUnit,
		MinimumAlertLevel: alertLevel,
	}
}

// Validate implements entity.Validatable.
func (m *RawMaterial) Validate(ctx context.Context) error {
	if err := m.BaseEntity.Validate(ctx); err != nil {
		return err
	}
	if m.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !m.Unit.IsValid() {
		return apperror.NewValidation("invalid unit").WithDetail("unit", m.Unit)
	}
	if m.CostPerUnit.IsNegative() {
		return apperror.NewValidation("cost per unit cannot be negative").WithDetail("field", "costPerUnit")
	}
	if m.MinimumAlertLevel.IsNegative() {
		return apperror.NewValidation("minimum alert level cannot be negative").WithDetail("field", "minimumAlertLevel")
	}
	return nil
}

// IsCritical reports whether stock is at or below the alert level.
func (m *RawMaterial) IsCritical() bool {
	return m.CurrentStock <= m.MinimumAlertLevel
}

// StockLot is one purchase batch. Lots are never deleted; RemainingQuantity
// only decreases and stays within [0, InitialQuantity].
type StockLot struct {
	ID            id.ID  `db:"id" json:"id"`
	TenantID      string `db:"tenant_id" json:"tenantId"`
	RawMaterialID id.ID  `db:"raw_material_id" json:"rawMaterialId"`

	UnitCost          types.Money    `db:"unit_cost" json:"unitCost"`
	InitialQuantity   types.Quantity `db:"initial_quantity" json:"initialQuantity"`
	RemainingQuantity types.Quantity `db:"remaining_quantity" json:"remainingQuantity"`

	PurchaseOrderID *id.ID     `db:"purchase_order_id" json:"purchaseOrderId,omitempty"`
	ExpirationDate  *time.Time `db:"expiration_date" json:"expirationDate,omitempty"`

	// CreatedAt is the acquisition time and the FIFO ordering key.
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockLot creates a full lot.
func NewStockLot(tenantID string, rawMaterialID id.ID, quantity types.Quantity, unitCost types.Money, receivedAt time.Time) *StockLot {
	return &StockLot{
		ID:                id.New(),
		TenantID:          tenantID,
		RawMaterialID:     rawMaterialID,
		UnitCost:          unitCost,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
		CreatedAt:         receivedAt.UTC(),
	}
}

// Validate implements entity.Validatable.
func (l *StockLot) Validate(_ context.Context) error {
	if l.TenantID == "" {
		return apperror.NewTenantRequired()
	}
	if id.IsNil(l.RawMaterialID) {
		return apperror.NewValidation("raw material is required").WithDetail("field", "rawMaterialId")
	}
	if !l.InitialQuantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if l.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").WithDetail("field", "unitCost")
	}
	if l.RemainingQuantity.IsNegative() || l.RemainingQuantity > l.InitialQuantity {
		return apperror.NewValidation("remaining quantity out of range").
			WithDetail("remaining", l.RemainingQuantity).
			WithDetail("initial", l.InitialQuantity)
	}
	return nil
}

// IsOpen reports whether the lot still has stock to consume.
func (l *StockLot) IsOpen() bool {
	return l.RemainingQuantity.IsPositive()
}

// AuditLine compares the running counter with the lot ledger for one material.
type AuditLine struct {
	RawMaterialID id.ID          `json:"rawMaterialId"`
	Name          string         `json:"name"`
	CurrentStock  types.Quantity `json:"currentStock"`
	LotRemaining  types.Quantity `json:"lotRemaining"`
	Shortfall     types.Quantity `json:"shortfall"`
	Expected      types.Quantity `json:"expected"`
	Drift         types.Quantity `json:"drift"`
}

// NewAuditLine computes expected stock and drift for m.
func NewAuditLine(m *RawMaterial, lotRemaining types.Quantity) AuditLine {
	expected := lotRemaining - m.ShortfallQuantity
	return AuditLine{
		RawMaterialID: m.ID,
		Name:          m.Name,
		CurrentStock:  m.CurrentStock,
		LotRemaining:  lotRemaining,
		Shortfall:     m.ShortfallQuantity,
		Expected:      expected,
		Drift:         m.CurrentStock - expected,
	}
}

// HasDrift reports whether the counter disagrees with the ledger.
func (a AuditLine) HasDrift() bool {
	return !a.Drift.IsZero()
}
