package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"kitchenledger/internal/core/numerator"
	"kitchenledger/internal/domain/costing"
	"kitchenledger/internal/domain/orders"
	"kitchenledger/internal/infrastructure/http/v1/dto"
)

// OrdersHandler exposes checkout and costing.
type OrdersHandler struct {
	*BaseHandler
	costing *costing.Service
	orders  orders.Repository
	numbers numerator.Generator
}

// NewOrdersHandler creates a new orders handler.
func NewOrdersHandler(base *BaseHandler, costingService *costing.Service, orderRepo orders.Repository, numbers numerator.Generator) *OrdersHandler {
	return &OrdersHandler{
		BaseHandler: base,
		costing:     costingService,
		orders:      orderRepo,
		numbers:     numbers,
	}
}

// Create handles POST /orders
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Number == "" {
		number, err := h.numbers.Next(c.Request.Context(), numerator.OrderConfig(), time.Now().UTC())
		if err != nil {
			h.Error(c, err)
			return
		}
		req.Number = number
	}

	order, err := req.ToEntity(h.GetTenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.orders.Create(c.Request.Context(), order); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, order.ID.String())
}

// Get handles GET /orders/:id
func (h *OrdersHandler) Get(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	order, err := h.orders.GetWithItems(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(order))
}

// Checkout handles POST /orders/:id/checkout
func (h *OrdersHandler) Checkout(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	result, err := h.costing.Checkout(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// ProcessStock handles POST /orders/:id/costing
func (h *OrdersHandler) ProcessStock(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}

	result, err := h.costing.ProcessOrderStock(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}
