package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"loanmarket/internal/auth"
	"loanmarket/internal/service"
)

type TransactionHandler struct {
	Trades *service.TradeService
}

func (h *TransactionHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/transactions")
	group.POST("", h.initiate)
	group.GET("/:tx_id", h.getTransaction)
	r.GET("/api/v1/loans/:loan_id/transactions", h.listByLoan)
}

func (h *TransactionHandler) initiate(c *gin.Context) {
	if h.Trades == nil {
		Error(c, http.StatusInternalServerError, "trade service unavailable", nil)
		return
	}
	var input service.InitiateTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if strings.TrimSpace(input.BuyerAccount) == "" {
		input.BuyerAccount = auth.AccountID(c)
	}

	item, err := h.Trades.InitiateTransaction(c.Request.Context(), input)
	if err != nil {
		serviceError(c, err)
		return
	}
	Created(c, item)
}

func (h *TransactionHandler) getTransaction(c *gin.Context) {
	if h.Trades == nil {
		Error(c, http.StatusInternalServerError, "trade service unavailable", nil)
		return
	}
	item, err := h.Trades.GetTransaction(c.Request.Context(), c.Param("tx_id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *TransactionHandler) listByLoan(c *gin.Context) {
	if h.Trades == nil {
		Error(c, http.StatusInternalServerError, "trade service unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, err := h.Trades.ListLoanTransactions(c.Request.Context(), c.Param("loan_id"), limit, offset)
	if err != nil {
		serviceError(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, int64(len(items))))
}
