package inventory

import (
	"context"
	"fmt"
	"time"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/entity"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/tx"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/events"
	"kitchenledger/pkg/logger"
)

// Service owns every write to RawMaterial.CurrentStock and
// StockLot.RemainingQuantity.
type Service struct {
	repo      Repository
	txManager tx.Manager
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a new inventory service.
func NewService(repo Repository, txManager tx.Manager, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateRawMaterial registers a new raw material for the tenant in ctx.
func (s *Service) CreateRawMaterial(ctx context.Context, m *RawMaterial) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}
	m.TenantID = tenantID
	if err := m.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.CreateRawMaterial(ctx, m); err != nil {
		return fmt.Errorf("create raw material: %w", err)
	}
	return nil
}

// DeductStock consumes required of a raw material oldest lot first and returns
// the cost incurred. Shortfall is not an error: the uncovered quantity is
// priced at the material's CostPerUnit and logged. CurrentStock always drops
// by the full required amount.
//
// The raw material row and its open lots are locked for the rest of the
// enclosing transaction, so deductions for the same material serialize.
func (s *Service) DeductStock(ctx context.Context, rawMaterialID id.ID, required types.Quantity, orderID id.ID) (*Deduction, error) {
	if required.IsNegative() {
		return nil, apperror.NewValidation("required quantity cannot be negative").
			WithDetail("rawMaterialId", rawMaterialID).
			WithDetail("required", required)
	}
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var result Deduction
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		material, err := s.repo.GetRawMaterialForUpdate(ctx, rawMaterialID)
		if err != nil {
			return err
		}

		lots, err := s.repo.ListOpenLotsForUpdate(ctx, rawMaterialID)
		if err != nil {
			return fmt.Errorf("list open lots: %w", err)
		}

		result = ConsumeFIFO(rawMaterialID, lots, required, material.CostPerUnit)

		if result.HasShortfall() {
			logger.Warn(ctx, "insufficient lot stock, charging market rate",
				"raw_material_id", rawMaterialID,
				"raw_material", material.Name,
				"required", required,
				"covered", result.Covered,
				"uncovered", result.Shortfall,
				"cost_per_unit", material.CostPerUnit,
			)
		}

		touched := make([]*StockLot, 0, len(result.Lots))
		byID := make(map[id.ID]*StockLot, len(lots))
		for _, lot := range lots {
			byID[lot.ID] = lot
		}
		for _, ld := range result.Lots {
			touched = append(touched, byID[ld.LotID])
		}
		if err := s.repo.UpdateLotRemaining(ctx, touched); err != nil {
			return fmt.Errorf("update lots: %w", err)
		}

		material.CurrentStock -= required
		material.ShortfallQuantity += result.Shortfall
		material.Touch()
		if err := s.repo.UpdateStockCounters(ctx, material); err != nil {
			return fmt.Errorf("update stock counters: %w", err)
		}

		if err := s.repo.RecordMovements(ctx, expenseMovements(tenantID, orderID, &result)); err != nil {
			return fmt.Errorf("record movements: %w", err)
		}

		if required.IsPositive() && material.IsCritical() {
			return s.publisher.Publish(ctx, events.StockCritical{
				TenantID:          tenantID,
				RawMaterialID:     material.ID,
				Name:              material.Name,
				CurrentStock:      material.CurrentStock,
				MinimumAlertLevel: material.MinimumAlertLevel,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func expenseMovements(tenantID string, orderID id.ID, d *Deduction) []entity.StockMovement {
	movements := make([]entity.StockMovement, 0, len(d.Lots)+1)
	for _, ld := range d.Lots {
		lotID := ld.LotID
		movements = append(movements, entity.NewStockMovement(
			tenantID, orderID, entity.RecorderOrder, entity.RecordTypeExpense,
			d.RawMaterialID, &lotID, ld.Quantity, ld.UnitCost,
		))
	}
	if d.HasShortfall() {
		movements = append(movements, entity.NewStockMovement(
			tenantID, orderID, entity.RecorderOrder, entity.RecordTypeExpense,
			d.RawMaterialID, nil, d.Shortfall, d.ShortfallUnitCost,
		))
	}
	return movements
}

// ReceiveLotInput describes a stock receipt.
type ReceiveLotInput struct {
	RawMaterialID   id.ID
	Quantity        types.Quantity
	UnitCost        types.Money
	ReceivedAt      *time.Time
	PurchaseOrderID *id.ID
	ExpirationDate  *time.Time

	// UpdateCostPerUnit makes UnitCost the material's new market price.
	UpdateCostPerUnit bool
}

// ReceiveLot records a purchase batch and adds it to the running counter.
func (s *Service) ReceiveLot(ctx context.Context, in ReceiveLotInput) (*StockLot, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	receivedAt := s.now()
	if in.ReceivedAt != nil {
		receivedAt = in.ReceivedAt.UTC()
	}

	lot := NewStockLot(tenantID, in.RawMaterialID, in.Quantity, in.UnitCost, receivedAt)
	lot.PurchaseOrderID = in.PurchaseOrderID
	lot.ExpirationDate = in.ExpirationDate
	if err := lot.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		material, err := s.repo.GetRawMaterialForUpdate(ctx, in.RawMaterialID)
		if err != nil {
			return err
		}

		if err := s.repo.CreateLot(ctx, lot); err != nil {
			return fmt.Errorf("create lot: %w", err)
		}

		material.CurrentStock += lot.InitialQuantity
		if in.UpdateCostPerUnit {
			material.CostPerUnit = lot.UnitCost
		}
		material.Touch()
		if err := s.repo.UpdateStockCounters(ctx, material); err != nil {
			return fmt.Errorf("update stock counters: %w", err)
		}

		lotID := lot.ID
		receipt := entity.NewStockMovement(
			tenantID, lot.ID, entity.RecorderStockLot, entity.RecordTypeReceipt,
			material.ID, &lotID, lot.InitialQuantity, lot.UnitCost,
		)
		return s.repo.RecordMovements(ctx, []entity.StockMovement{receipt})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock lot received",
		"lot_id", lot.ID,
		"raw_material_id", lot.RawMaterialID,
		"quantity", lot.InitialQuantity,
		"unit_cost", lot.UnitCost,
	)

	return lot, nil
}

// Audit compares every raw material's running counter with its lot ledger.
// It is read-only; drift is reported, not fixed.
func (s *Service) Audit(ctx context.Context) ([]AuditLine, error) {
	if _, err := tenant.RequireTenantID(ctx); err != nil {
		return nil, err
	}

	materials, err := s.repo.ListRawMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list raw materials: %w", err)
	}
	sums, err := s.repo.SumLotRemaining(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum lot remaining: %w", err)
	}

	lines := make([]AuditLine, 0, len(materials))
	for _, m := range materials {
		lines = append(lines, NewAuditLine(m, sums[m.ID]))
	}
	return lines, nil
}

// Reconcile resets a raw material's running counter to the value implied by
// its lots and shortfall, recording the correction as an adjustment movement.
func (s *Service) Reconcile(ctx context.Context, rawMaterialID id.ID) (*AuditLine, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var before AuditLine
	var after AuditLine
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		material, err := s.repo.GetRawMaterialForUpdate(ctx, rawMaterialID)
		if err != nil {
			return err
		}
		lots, err := s.repo.ListOpenLotsForUpdate(ctx, rawMaterialID)
		if err != nil {
			return fmt.Errorf("list open lots: %w", err)
		}

		var lotSum types.Quantity
		for _, lot := range lots {
			lotSum += lot.RemainingQuantity
		}

		before = NewAuditLine(material, lotSum)
		if !before.HasDrift() {
			after = before
			return nil
		}

		material.CurrentStock = before.Expected
		material.Touch()
		if err := s.repo.UpdateStockCounters(ctx, material); err != nil {
			return fmt.Errorf("update stock counters: %w", err)
		}

		adjustment := entity.NewStockMovement(
			tenantID, id.New(), entity.RecorderReconcile, entity.RecordTypeAdjustment,
			material.ID, nil, before.Drift.Neg(), material.CostPerUnit,
		)
		if err := s.repo.RecordMovements(ctx, []entity.StockMovement{adjustment}); err != nil {
			return fmt.Errorf("record adjustment: %w", err)
		}

		after = NewAuditLine(material, lotSum)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if before.HasDrift() {
		logger.Warn(ctx, "raw material stock reconciled",
			"raw_material_id", rawMaterialID,
			"previous", before.CurrentStock,
			"expected", before.Expected,
			"drift", before.Drift,
		)
	}

	return &after, nil
}
