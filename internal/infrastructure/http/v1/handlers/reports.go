package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/domain/reports"
	"kitchenledger/internal/infrastructure/http/v1/dto"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ProfitLoss handles GET /reports/profit-loss
func (h *ReportsHandler) ProfitLoss(c *gin.Context) {
	report, ok := h.profitLoss(c)
	if !ok {
		return
	}
	h.OK(c, report)
}

// ProfitLossXLSX handles GET /reports/profit-loss.xlsx
func (h *ReportsHandler) ProfitLossXLSX(c *gin.Context) {
	report, ok := h.profitLoss(c)
	if !ok {
		return
	}

	body, err := reports.ExportProfitLossXLSX(report)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	filename := fmt.Sprintf("profit-loss_%s_%s.xlsx", report.From, report.To)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, body)
}

func (h *ReportsHandler) profitLoss(c *gin.Context) (*reports.ProfitLossReport, bool) {
	var req dto.ProfitLossRequest
	if !h.BindQuery(c, &req) {
		return nil, false
	}

	from, to, err := req.Range(h.service.Location())
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	report, err := h.service.GetProfitLossReport(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return report, true
}
