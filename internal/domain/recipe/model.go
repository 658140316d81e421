// Package recipe maps sellable products to the raw materials one portion consumes.
package recipe

import (
	"context"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/entity"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// Product is a menu item.
type Product struct {
	entity.BaseEntity

	Name     string      `db:"name" json:"name"`
	Price    types.Money `db:"price" json:"price"`
	IsActive bool        `db:"is_active" json:"isActive"`
}

// NewProduct creates an active product.
func NewProduct(tenantID, name string, price types.Money) *Product {
	return &Product{
		BaseEntity: entity.NewBaseEntity(tenantID),
		Name:       name,
		Price:      price,
		IsActive:   true,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.BaseEntity.Validate(ctx); err != nil {
		return err
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").WithDetail("field", "price")
	}
	return nil
}

// Item is one ingredient line: Amount of a raw material per unit sold.
type Item struct {
	ID            id.ID          `db:"id" json:"id"`
	TenantID      string         `db:"tenant_id" json:"tenantId"`
	ProductID     id.ID          `db:"product_id" json:"productId"`
	RawMaterialID id.ID          `db:"raw_material_id" json:"rawMaterialId"`
	Amount        types.Quantity `db:"amount" json:"amount"`
}

// ProductRecipe is a product with its recipe items. A product without items
// costs nothing to make (e.g. bottled drinks not tracked by ingredient).
type ProductRecipe struct {
	Product *Product `json:"product"`
	Items   []Item   `json:"items"`
}

// Requirements returns raw material quantities needed to sell qty units.
// It fails with types.ErrQuantityOutOfRange instead of wrapping.
func (r *ProductRecipe) Requirements(qty int64) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity, len(r.Items))
	for _, item := range r.Items {
		need, err := item.Amount.MulInt(qty)
		if err != nil {
			return nil, err
		}
		if out[item.RawMaterialID], err = out[item.RawMaterialID].Add(need); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ItemInput is a recipe line as supplied by callers.
type ItemInput struct {
	RawMaterialID id.ID
	Amount        types.Quantity
}
