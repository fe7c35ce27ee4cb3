package handlers

import (
	"log/slog"
	"net/http"

	"agencyblog/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewHealthHandler(conn *gorm.DB, log *slog.Logger) *HealthHandler {
	return &HealthHandler{db: conn, log: log}
}

func (h *HealthHandler) Check(c *gin.Context) {
	if err := db.Ping(c.Request.Context(), h.db); err != nil {
		h.log.WarnContext(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
