package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"loanmarket/internal/auth"
	"loanmarket/internal/service"
)

type LoanHandler struct {
	Loans *service.LoanService
}

func (h *LoanHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/loans")
	group.POST("", h.createLoan)
	group.POST("/bulk", h.createLoansBulk)
	group.GET("", h.listLoans)
	group.GET("/:loan_id", h.getLoan)
	group.PATCH("/:loan_id", h.updateLoan)
	group.GET("/:loan_id/explanations", h.getExplanations)
	group.POST("/:loan_id/reassess", h.reassess)
}

func (h *LoanHandler) createLoan(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	var input service.CreateLoanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if strings.TrimSpace(input.LoanID) == "" || strings.TrimSpace(input.OriginatorAccount) == "" {
		Error(c, http.StatusBadRequest, "loan_id and originator_account are required", nil)
		return
	}

	loan, err := h.Loans.CreateLoan(c.Request.Context(), input, auth.AccountID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	Created(c, loan)
}

func (h *LoanHandler) createLoansBulk(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	var inputs []service.CreateLoanInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if len(inputs) == 0 {
		Error(c, http.StatusBadRequest, "empty batch", nil)
		return
	}

	result := h.Loans.CreateLoansBulk(c.Request.Context(), inputs, auth.AccountID(c))
	Ok(c, result, map[string]any{
		"requested": len(inputs),
		"created":   len(result.Created),
		"failed":    len(result.Failed),
	})
}

func (h *LoanHandler) listLoans(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	originator := strings.TrimSpace(c.Query("originator"))
	if originator == "" {
		originator = auth.AccountID(c)
	}
	if originator == "" {
		Error(c, http.StatusBadRequest, "originator is required", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	items, total, err := h.Loans.ListByOriginator(c.Request.Context(), originator, limit, offset)
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *LoanHandler) getLoan(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	loan, err := h.Loans.GetLoan(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, loan, nil)
}

func (h *LoanHandler) updateLoan(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	var input service.UpdateLoanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	loan, err := h.Loans.UpdateLoan(c.Request.Context(), c.Param("loan_id"), input, auth.AccountID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, loan, nil)
}

func (h *LoanHandler) getExplanations(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	items, err := h.Loans.Explanations(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, items, nil)
}

func (h *LoanHandler) reassess(c *gin.Context) {
	if h.Loans == nil {
		Error(c, http.StatusInternalServerError, "loan service unavailable", nil)
		return
	}
	loan, err := h.Loans.Reassess(c.Request.Context(), c.Param("loan_id"), auth.AccountID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, loan, nil)
}
