package inventory

import (
	"context"

	"kitchenledger/internal/core/entity"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// Repository is the stock ledger store. All methods are scoped to the tenant
// in ctx. The ForUpdate variants take row locks and must run inside a
// transaction.
type Repository interface {
	// Raw materials

	// CreateRawMaterial inserts a new raw material
	CreateRawMaterial(ctx context.Context, m *RawMaterial) error

	// GetRawMaterial returns NotFound AppError when missing
	GetRawMaterial(ctx context.Context, rawMaterialID id.ID) (*RawMaterial, error)

	// GetRawMaterialForUpdate locks the raw material row
	GetRawMaterialForUpdate(ctx context.Context, rawMaterialID id.ID) (*RawMaterial, error)

	// ListRawMaterials returns every raw material ordered by name
	ListRawMaterials(ctx context.Context) ([]*RawMaterial, error)

	// ListBelowAlertLevel returns materials where current_stock <= minimum_alert_level
	ListBelowAlertLevel(ctx context.Context) ([]*RawMaterial, error)

	// UpdateStockCounters persists current stock, shortfall and cost per unit
	UpdateStockCounters(ctx context.Context, m *RawMaterial) error

	// Lots

	// CreateLot inserts a received lot
	CreateLot(ctx context.Context, lot *StockLot) error

	// ListOpenLotsForUpdate locks lots with remaining > 0, oldest first (created_at, id)
	ListOpenLotsForUpdate(ctx context.Context, rawMaterialID id.ID) ([]*StockLot, error)

	// UpdateLotRemaining persists remaining quantity of the given lots
	UpdateLotRemaining(ctx context.Context, lots []*StockLot) error

	// SumLotRemaining returns remaining quantity per raw material
	SumLotRemaining(ctx context.Context) (map[id.ID]types.Quantity, error)

	// Ledger

	// RecordMovements appends to the stock movement cost trail
	RecordMovements(ctx context.Context, movements []entity.StockMovement) error

	// ListMovementsByRecorder returns the movements an order, lot or reconciliation created
	ListMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error)
}

// TenantLister enumerates tenants that own stock. Used by background jobs
// that run outside any request.
type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
}
