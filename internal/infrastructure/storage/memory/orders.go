package memory

import (
	"context"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/domain/orders"
)

var _ orders.Repository = (*Store)(nil)

func (s *Store) Create(ctx context.Context, o *orders.Order) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o.TenantID = tenantID
	stored := *o
	stored.Items = append([]orders.Item(nil), o.Items...)
	s.data.orders[o.ID] = stored
	return nil
}

func (s *Store) GetWithItems(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.data.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, apperror.NewNotFound("order", orderID)
	}
	o.Items = append([]orders.Item(nil), o.Items...)
	return &o, nil
}

func (s *Store) GetWithItemsForUpdate(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	if err := s.injected("GetWithItemsForUpdate"); err != nil {
		return nil, err
	}
	return s.GetWithItems(ctx, orderID)
}

func (s *Store) SaveStatus(ctx context.Context, o *orders.Order) error {
	if err := s.injected("SaveStatus"); err != nil {
		return err
	}
	return s.update(ctx, o.ID, o.Version, func(stored *orders.Order) {
		stored.Status = o.Status
		stored.PaidAt = o.PaidAt
		stored.Version = o.Version
		stored.UpdatedAt = o.UpdatedAt
	})
}

func (s *Store) SaveCosting(ctx context.Context, o *orders.Order) error {
	if err := s.injected("SaveCosting"); err != nil {
		return err
	}
	return s.update(ctx, o.ID, o.Version, func(stored *orders.Order) {
		stored.TotalCost = o.TotalCost
		stored.NetProfit = o.NetProfit
		stored.StockProcessedAt = o.StockProcessedAt
		stored.Version = o.Version
		stored.UpdatedAt = o.UpdatedAt
	})
}

func (s *Store) update(ctx context.Context, orderID id.ID, version int, apply func(*orders.Order)) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.data.orders[orderID]
	if !ok || stored.TenantID != tenantID {
		return apperror.NewNotFound("order", orderID)
	}
	if stored.Version != version-1 {
		return apperror.NewConcurrentModification("order", orderID)
	}
	apply(&stored)
	s.data.orders[orderID] = stored
	return nil
}
