package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"loanmarket/internal/repository"
	"loanmarket/internal/service"
)

type MarketplaceHandler struct {
	Loans *service.LoanService
}

func (h *MarketplaceHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/marketplace")
	group.GET("/search", h.search)
	group.GET("/featured", h.featured)
	group.GET("/recommendations", h.recommendations)
}

var marketplaceOrderColumns = map[string]string{
	"yield":         "yield_to_maturity",
	"risk_score":    "risk_score",
	"principal":     "principal",
	"interest_rate": "interest_rate",
	"created_at":    "created_at",
}

func (h *MarketplaceHandler) search(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	params := repository.MarketplaceParams{
		Limit:           intQuery(c, "limit", 50),
		Offset:          intQuery(c, "offset", 0),
		MinPrincipal:    floatQueryPtr(c, "min_principal"),
		MaxPrincipal:    floatQueryPtr(c, "max_principal"),
		MinInterestRate: floatQueryPtr(c, "min_interest_rate"),
		MaxInterestRate: floatQueryPtr(c, "max_interest_rate"),
		RiskGrades:      csvQuery(c, "risk_grades"),
		MinYield:        floatQueryPtr(c, "min_yield"),
		MaxYield:        floatQueryPtr(c, "max_yield"),
		MaxRiskScore:    floatQueryPtr(c, "max_risk_score"),
	}
	if col, ok := marketplaceOrderColumns[strings.ToLower(strings.TrimSpace(c.Query("order_by")))]; ok {
		params.OrderBy = col
		params.Asc = boolPtr(strings.EqualFold(c.Query("order"), "asc"))
	}

	items, total, err := h.Loans.SearchMarketplace(c.Request.Context(), params)
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

func (h *MarketplaceHandler) featured(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	items, err := h.Loans.FeaturedLoans(c.Request.Context(), intQuery(c, "limit", 10))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, items, nil)
}

func (h *MarketplaceHandler) recommendations(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	items, err := h.Loans.RecommendedLoans(c.Request.Context(), intQuery(c, "limit", 10))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, items, nil)
}
