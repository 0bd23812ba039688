package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck godoc
// @Summary      Health check
// @Description  Liveness probe; returns the service name so dashboards can tell environments apart.
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string "Service is up"
// @Router       /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "bridge-local-platform",
	})
}
