package memory

import (
	"context"
	"sort"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/entity"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/inventory"
)

var _ inventory.Repository = (*Store)(nil)

func (s *Store) CreateRawMaterial(ctx context.Context, m *inventory.RawMaterial) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.rawMaterials[m.ID]; exists {
		return apperror.NewConflict("raw material already exists").WithDetail("id", m.ID)
	}
	m.TenantID = tenantID
	s.data.rawMaterials[m.ID] = *m
	return nil
}

func (s *Store) GetRawMaterial(ctx context.Context, rawMaterialID id.ID) (*inventory.RawMaterial, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data.rawMaterials[rawMaterialID]
	if !ok || m.TenantID != tenantID {
		return nil, apperror.NewNotFound("raw material", rawMaterialID)
	}
	return &m, nil
}

func (s *Store) GetRawMaterialForUpdate(ctx context.Context, rawMaterialID id.ID) (*inventory.RawMaterial, error) {
	return s.GetRawMaterial(ctx, rawMaterialID)
}

func (s *Store) ListRawMaterials(ctx context.Context) ([]*inventory.RawMaterial, error) {
	return s.listRawMaterials(ctx, func(*inventory.RawMaterial) bool { return true })
}

func (s *Store) ListBelowAlertLevel(ctx context.Context) ([]*inventory.RawMaterial, error) {
	return s.listRawMaterials(ctx, (*inventory.RawMaterial).IsCritical)
}

func (s *Store) listRawMaterials(ctx context.Context, keep func(*inventory.RawMaterial) bool) ([]*inventory.RawMaterial, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*inventory.RawMaterial
	for _, m := range s.data.rawMaterials {
		m := m
		if m.TenantID == tenantID && keep(&m) {
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateStockCounters(ctx context.Context, m *inventory.RawMaterial) error {
	if err := s.injected("UpdateStockCounters"); err != nil {
		return err
	}
	current, err := s.GetRawMaterial(ctx, m.ID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current.CurrentStock = m.CurrentStock
	current.ShortfallQuantity = m.ShortfallQuantity
	current.CostPerUnit = m.CostPerUnit
	current.Version = m.Version
	current.UpdatedAt = m.UpdatedAt
	s.data.rawMaterials[m.ID] = *current
	return nil
}

func (s *Store) CreateLot(ctx context.Context, lot *inventory.StockLot) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lot.TenantID = tenantID
	s.data.lots[lot.ID] = *lot
	return nil
}

func (s *Store) ListOpenLotsForUpdate(ctx context.Context, rawMaterialID id.ID) ([]*inventory.StockLot, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*inventory.StockLot
	for _, lot := range s.data.lots {
		lot := lot
		if lot.TenantID == tenantID && lot.RawMaterialID == rawMaterialID && lot.IsOpen() {
			out = append(out, &lot)
		}
	}
	inventory.SortLotsFIFO(out)
	return out, nil
}

func (s *Store) UpdateLotRemaining(ctx context.Context, lots []*inventory.StockLot) error {
	if err := s.injected("UpdateLotRemaining"); err != nil {
		return err
	}
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lot := range lots {
		stored, ok := s.data.lots[lot.ID]
		if !ok || stored.TenantID != tenantID {
			return apperror.NewNotFound("stock lot", lot.ID)
		}
		if lot.RemainingQuantity.IsNegative() || lot.RemainingQuantity > stored.InitialQuantity {
			return apperror.NewValidation("remaining quantity out of range").WithDetail("lotId", lot.ID)
		}
		stored.RemainingQuantity = lot.RemainingQuantity
		s.data.lots[lot.ID] = stored
	}
	return nil
}

func (s *Store) SumLotRemaining(ctx context.Context) (map[id.ID]types.Quantity, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[id.ID]types.Quantity{}
	for _, lot := range s.data.lots {
		if lot.TenantID == tenantID {
			out[lot.RawMaterialID] += lot.RemainingQuantity
		}
	}
	return out, nil
}

func (s *Store) RecordMovements(ctx context.Context, movements []entity.StockMovement) error {
	if err := s.injected("RecordMovements"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.movements = append(s.data.movements, movements...)
	return nil
}

func (s *Store) ListMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.StockMovement
	for _, m := range s.data.movements {
		if m.TenantID == tenantID && m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

// GetLot returns a copy of a lot regardless of tenant.
func (s *Store) GetLot(lotID id.ID) (inventory.StockLot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.data.lots[lotID]
	return lot, ok
}

// ListTenantIDs returns tenants that own raw materials.
func (s *Store) ListTenantIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, m := range s.data.rawMaterials {
		if _, ok := seen[m.TenantID]; !ok {
			seen[m.TenantID] = struct{}{}
			out = append(out, m.TenantID)
		}
	}
	sort.Strings(out)
	return out, nil
}
