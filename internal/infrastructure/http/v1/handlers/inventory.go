package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles raw materials, lot receipts and stock audit.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// CreateRawMaterial handles POST /inventory/raw-materials
func (h *InventoryHandler) CreateRawMaterial(c *gin.Context) {
	var req dto.CreateRawMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := req.ToEntity(h.GetTenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.CreateRawMaterial(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, m.ID.String())
}

// ReceiveLot handles POST /inventory/lots
func (h *InventoryHandler) ReceiveLot(c *gin.Context) {
	var req dto.ReceiveLotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	lot, err := h.service.ReceiveLot(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, lot)
}

// Audit handles GET /inventory/audit
func (h *InventoryHandler) Audit(c *gin.Context) {
	lines, err := h.service.Audit(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAudit(lines))
}

// Reconcile handles POST /inventory/raw-materials/:id/reconcile
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	rawMaterialID, ok := h.PathID(c)
	if !ok {
		return
	}

	line, err := h.service.Reconcile(c.Request.Context(), rawMaterialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, line)
}
