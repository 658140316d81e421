package memory

import (
	"context"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/recipe"
)

var _ recipe.Repository = (*Store)(nil)

func (s *Store) CreateProduct(ctx context.Context, p *recipe.Product) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.TenantID = tenantID
	s.data.products[p.ID] = *p
	return nil
}

func (s *Store) GetProduct(ctx context.Context, productID id.ID) (*recipe.Product, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.products[productID]
	if !ok || p.TenantID != tenantID {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

func (s *Store) GetProductRecipes(ctx context.Context, productIDs []id.ID) (map[id.ID]*recipe.ProductRecipe, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[id.ID]*recipe.ProductRecipe, len(productIDs))
	for _, pid := range productIDs {
		p, ok := s.data.products[pid]
		if !ok || p.TenantID != tenantID {
			continue
		}
		out[pid] = &recipe.ProductRecipe{
			Product: &p,
			Items:   append([]recipe.Item(nil), s.data.recipeItems[pid]...),
		}
	}
	return out, nil
}

func (s *Store) ReplaceItems(ctx context.Context, productID id.ID, items []recipe.Item) error {
	if _, err := tenantOf(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.recipeItems[productID] = append([]recipe.Item(nil), items...)
	return nil
}

func (s *Store) CurrentUnitCosts(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Money, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[id.ID]types.Money, len(productIDs))
	for _, pid := range productIDs {
		items, ok := s.data.recipeItems[pid]
		if !ok || len(items) == 0 {
			continue
		}
		total := types.Zero()
		for _, it := range items {
			m, ok := s.data.rawMaterials[it.RawMaterialID]
			if !ok || m.TenantID != tenantID {
				continue
			}
			total = total.Add(it.Amount.Cost(m.CostPerUnit))
		}
		out[pid] = total
	}
	return out, nil
}
