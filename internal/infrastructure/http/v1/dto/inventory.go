package dto

import (
	"time"

	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/inventory"
)

// CreateRawMaterialRequest is the body of POST /inventory/raw-materials.
type CreateRawMaterialRequest struct {
	Name              string         `json:"name" binding:"required"`
	Unit              string         `json:"unit" binding:"required"`
	CostPerUnit       string         `json:"costPerUnit" binding:"required"`
	MinimumAlertLevel types.Quantity `json:"minimumAlertLevel"`
}

// ToEntity builds the raw material for tenantID.
func (r CreateRawMaterialRequest) ToEntity(tenantID string) (*inventory.RawMaterial, error) {
	cost, err := ParseMoney("costPerUnit", r.CostPerUnit)
	if err != nil {
		return nil, err
	}
	return inventory.NewRawMaterial(tenantID, r.Name, inventory.Unit(r.Unit), cost, r.MinimumAlertLevel), nil
}

// ReceiveLotRequest is the body of POST /inventory/lots.
type ReceiveLotRequest struct {
	RawMaterialID     string         `json:"rawMaterialId" binding:"required"`
	Quantity          types.Quantity `json:"quantity"`
	UnitCost          string         `json:"unitCost" binding:"required"`
	ReceivedAt        *time.Time     `json:"receivedAt"`
	PurchaseOrderID   *string        `json:"purchaseOrderId"`
	ExpirationDate    *time.Time     `json:"expirationDate"`
	UpdateCostPerUnit bool           `json:"updateCostPerUnit"`
}

// ToInput converts the request to the service input.
func (r ReceiveLotRequest) ToInput() (inventory.ReceiveLotInput, error) {
	rawMaterialID, err := ParseID("rawMaterialId", r.RawMaterialID)
	if err != nil {
		return inventory.ReceiveLotInput{}, err
	}
	unitCost, err := ParseMoney("unitCost", r.UnitCost)
	if err != nil {
		return inventory.ReceiveLotInput{}, err
	}
	poID, err := ParseOptionalID("purchaseOrderId", r.PurchaseOrderID)
	if err != nil {
		return inventory.ReceiveLotInput{}, err
	}
	return inventory.ReceiveLotInput{
		RawMaterialID:     rawMaterialID,
		Quantity:          r.Quantity,
		UnitCost:          unitCost,
		ReceivedAt:        r.ReceivedAt,
		PurchaseOrderID:   poID,
		ExpirationDate:    r.ExpirationDate,
		UpdateCostPerUnit: r.UpdateCostPerUnit,
	}, nil
}

// AuditResponse lists per-material drift between counter and lots.
type AuditResponse struct {
	Lines      []inventory.AuditLine `json:"lines"`
	DriftCount int                   `json:"driftCount"`
}

// FromAudit counts drifting lines.
func FromAudit(lines []inventory.AuditLine) AuditResponse {
	resp := AuditResponse{Lines: lines}
	if resp.Lines == nil {
		resp.Lines = []inventory.AuditLine{}
	}
	for _, l := range lines {
		if l.HasDrift() {
			resp.DriftCount++
		}
	}
	return resp
}
