package recipe

import (
	"context"
	"fmt"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/tx"
	"kitchenledger/pkg/logger"
)

// Service manages the recipe catalog. Recipes are static configuration and
// are only read during checkout.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new recipe service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// CreateProduct adds a product for the tenant in ctx.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}
	p.TenantID = tenantID
	if err := p.Validate(ctx); err != nil {
		return err
	}
	return s.repo.CreateProduct(ctx, p)
}

// SetRecipe replaces a product's recipe. Each raw material may appear once
// and every amount must be positive.
func (s *Service) SetRecipe(ctx context.Context, productID id.ID, inputs []ItemInput) (*ProductRecipe, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[id.ID]struct{}, len(inputs))
	items := make([]Item, 0, len(inputs))
	for i, in := range inputs {
		if id.IsNil(in.RawMaterialID) {
			return nil, apperror.NewValidation(fmt.Sprintf("item %d: raw material is required", i))
		}
		if !in.Amount.IsPositive() {
			return nil, apperror.NewValidation(fmt.Sprintf("item %d: amount must be positive", i)).
				WithDetail("rawMaterialId", in.RawMaterialID)
		}
		if _, dup := seen[in.RawMaterialID]; dup {
			return nil, apperror.NewValidation(fmt.Sprintf("item %d: duplicate raw material", i)).
				WithDetail("rawMaterialId", in.RawMaterialID)
		}
		seen[in.RawMaterialID] = struct{}{}
		items = append(items, Item{
			ID:            id.New(),
			TenantID:      tenantID,
			ProductID:     productID,
			RawMaterialID: in.RawMaterialID,
			Amount:        in.Amount,
		})
	}

	var product *Product
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		product, err = s.repo.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		return s.repo.ReplaceItems(ctx, productID, items)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "recipe updated", "product_id", productID, "items", len(items))

	return &ProductRecipe{Product: product, Items: items}, nil
}

// GetRecipe returns a product with its items.
func (s *Service) GetRecipe(ctx context.Context, productID id.ID) (*ProductRecipe, error) {
	if _, err := tenant.RequireTenantID(ctx); err != nil {
		return nil, err
	}
	recipes, err := s.repo.GetProductRecipes(ctx, []id.ID{productID})
	if err != nil {
		return nil, fmt.Errorf("get product recipes: %w", err)
	}
	r, ok := recipes[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return r, nil
}
