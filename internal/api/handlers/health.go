package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
}

// Health returns server liveness and the process instance id.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", InstanceID: h.instanceID})
}
