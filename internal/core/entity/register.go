package entity

import (
	"time"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// RecordType defines movement direction for the stock movement register.
type RecordType string

const (
	// RecordTypeReceipt increases stock (lot received)
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases stock (recipe consumption)
	RecordTypeExpense RecordType = "expense"
	// RecordTypeAdjustment corrects the running counter (reconciliation)
	RecordTypeAdjustment RecordType = "adjustment"
)

// Recorder types that create movements.
const (
	RecorderOrder     = "Order"
	RecorderStockLot  = "StockLot"
	RecorderReconcile = "Reconciliation"
)

// StockMovement is one immutable line in the raw material cost trail.
// Expense movements reference the lot they consumed; a nil LotID marks the
// shortfall portion that was priced at the raw material's fallback cost.
type StockMovement struct {
	LineID   id.ID  `db:"line_id" json:"lineId"`
	TenantID string `db:"tenant_id" json:"tenantId"`

	// RecorderID is the order, lot or reconciliation that created this movement
	RecorderID   id.ID  `db:"recorder_id" json:"recorderId"`
	RecorderType string `db:"recorder_type" json:"recorderType"`

	RecordType RecordType `db:"record_type" json:"recordType"`

	RawMaterialID id.ID  `db:"raw_material_id" json:"rawMaterialId"`
	LotID         *id.ID `db:"lot_id" json:"lotId,omitempty"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	UnitCost types.Money    `db:"unit_cost" json:"unitCost"`
	Amount   types.Money    `db:"amount" json:"amount"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a movement and prices it at unitCost.
func NewStockMovement(
	tenantID string,
	recorderID id.ID,
	recorderType string,
	recordType RecordType,
	rawMaterialID id.ID,
	lotID *id.ID,
	quantity types.Quantity,
	unitCost types.Money,
) StockMovement {
	return StockMovement{
		LineID:        id.New(),
		TenantID:      tenantID,
		RecorderID:    recorderID,
		RecorderType:  recorderType,
		RecordType:    recordType,
		RawMaterialID: rawMaterialID,
		LotID:         lotID,
		Quantity:      quantity,
		UnitCost:      unitCost,
		Amount:        quantity.Cost(unitCost),
		CreatedAt:     time.Now().UTC(),
	}
}

// IsShortfall reports whether the movement covers quantity no lot could supply.
func (m *StockMovement) IsShortfall() bool {
	return m.RecordType == RecordTypeExpense && m.LotID == nil
}
