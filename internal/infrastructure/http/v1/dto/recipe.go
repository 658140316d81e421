package dto

import (
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/recipe"
)

// CreateProductRequest is the body of POST /products.
type CreateProductRequest struct {
	Name  string `json:"name" binding:"required"`
	Price string `json:"price" binding:"required"`
}

// ToEntity builds the product for tenantID.
func (r CreateProductRequest) ToEntity(tenantID string) (*recipe.Product, error) {
	price, err := ParseMoney("price", r.Price)
	if err != nil {
		return nil, err
	}
	return recipe.NewProduct(tenantID, r.Name, price), nil
}

// RecipeItemRequest is one ingredient line.
type RecipeItemRequest struct {
	RawMaterialID string         `json:"rawMaterialId" binding:"required"`
	Amount        types.Quantity `json:"amount"`
}

// SetRecipeRequest is the body of PUT /products/:id/recipe.
type SetRecipeRequest struct {
	Items []RecipeItemRequest `json:"items"`
}

// ToInputs converts the lines to service inputs.
func (r SetRecipeRequest) ToInputs() ([]recipe.ItemInput, error) {
	out := make([]recipe.ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		rawMaterialID, err := ParseID("rawMaterialId", it.RawMaterialID)
		if err != nil {
			return nil, err
		}
		out = append(out, recipe.ItemInput{RawMaterialID: rawMaterialID, Amount: it.Amount})
	}
	return out, nil
}
