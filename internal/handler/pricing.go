package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmarket/internal/service"
)

// PricingHandler exposes ad-hoc valuation and stress views on assessed
// loans. Nothing here persists; the stored price only changes through
// assessment.
type PricingHandler struct {
	Loans *service.LoanService
}

func (h *PricingHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/loans/:loan_id")
	group.GET("/valuation", h.valuation)
	group.GET("/stress", h.stress)
}

func (h *PricingHandler) valuation(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	result, err := h.Loans.Valuation(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, result, nil)
}

func (h *PricingHandler) stress(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	report, err := h.Loans.Stress(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, report, nil)
}
