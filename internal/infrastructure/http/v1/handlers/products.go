package handlers

import (
	"github.com/gin-gonic/gin"

	"kitchenledger/internal/domain/recipe"
	"kitchenledger/internal/infrastructure/http/v1/dto"
)

// ProductsHandler handles menu products and their recipes.
type ProductsHandler struct {
	*BaseHandler
	service *recipe.Service
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(base *BaseHandler, service *recipe.Service) *ProductsHandler {
	return &ProductsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /products
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := req.ToEntity(h.GetTenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.CreateProduct(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID.String())
}

// SetRecipe handles PUT /products/:id/recipe
func (h *ProductsHandler) SetRecipe(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.SetRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inputs, err := req.ToInputs()
	if err != nil {
		h.Error(c, err)
		return
	}

	r, err := h.service.SetRecipe(c.Request.Context(), productID, inputs)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, r)
}

// GetRecipe handles GET /products/:id/recipe
func (h *ProductsHandler) GetRecipe(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	r, err := h.service.GetRecipe(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, r)
}
