package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"loanmarket/internal/risk"
	"loanmarket/internal/service"
)

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func floatQueryPtr(c *gin.Context, key string) *float64 {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return &f
		}
	}
	return nil
}

func csvQuery(c *gin.Context, key string) []string {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.ToUpper(strings.TrimSpace(p)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func boolPtr(v bool) *bool { return &v }

func paginationMeta(limit, offset int, total int64) map[string]any {
	if limit <= 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	hasNext := int64(offset+limit) < total
	return map[string]any{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_next": hasNext,
	}
}

// serviceError translates domain errors into HTTP statuses. Validation
// problems and bad trade requests are the caller's fault; a missing model is
// an availability problem.
func serviceError(c *gin.Context, err error) {
	switch {
	case risk.IsValidationError(err):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrLoanExists):
		Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrLoanNotFound), errors.Is(err, service.ErrTxNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrLoanNotTradeable),
		errors.Is(err, service.ErrInvalidFraction),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrNotAssessed):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, risk.ErrNotTrained), errors.Is(err, risk.ErrArtifactNotFound):
		Error(c, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	}
}
