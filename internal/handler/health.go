package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"loanmarket/internal/risk"
)

type HealthHandler struct {
	DB   *gorm.DB
	Risk *risk.Engine
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ready reports unready until the database answers and a risk model has been
// installed, so the deployment never serves unassessable traffic.
func (h *HealthHandler) ready(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_missing"})
		return
	}
	sqlDB, err := h.DB.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
		return
	}
	if h.Risk == nil || h.Risk.Current() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "model_missing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
