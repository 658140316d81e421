package handlers

import (
	"github.com/gin-gonic/gin"

	"kitchenledger/internal/domain/procurement"
)

// ProcurementHandler serves replenishment suggestions.
type ProcurementHandler struct {
	*BaseHandler
	service *procurement.Service
}

// NewProcurementHandler creates a new procurement handler.
func NewProcurementHandler(base *BaseHandler, service *procurement.Service) *ProcurementHandler {
	return &ProcurementHandler{BaseHandler: base, service: service}
}

// Suggestions handles GET /procurement/suggestions
func (h *ProcurementHandler) Suggestions(c *gin.Context) {
	suggestions, err := h.service.GetSuggestedOrders(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if suggestions == nil {
		suggestions = []procurement.SuggestedOrder{}
	}

	h.OK(c, gin.H{"items": suggestions})
}
