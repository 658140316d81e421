package recipe

import (
	"context"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// Repository stores products and their recipes, scoped to the tenant in ctx.
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error

	// GetProduct returns NotFound AppError when missing
	GetProduct(ctx context.Context, productID id.ID) (*Product, error)

	// GetProductRecipes loads the given products with their items.
	// Products that do not exist are absent from the result.
	GetProductRecipes(ctx context.Context, productIDs []id.ID) (map[id.ID]*ProductRecipe, error)

	// ReplaceItems swaps the product's recipe for items
	ReplaceItems(ctx context.Context, productID id.ID, items []Item) error

	// CurrentUnitCosts returns sum(amount * raw material cost_per_unit) per
	// product, priced at the current market rate.
	CurrentUnitCosts(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Money, error)
}
