package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheck(ctx *gin.Context) {
	sqlDB, err := h.DB.DB()

	if err == nil {
		err = sqlDB.PingContext(ctx.Request.Context())
	}

	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unavailable",
			"error":     "Database unreachable",
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "TaskSwap is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
