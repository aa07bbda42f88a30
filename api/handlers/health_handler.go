package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ActiveCounter reports the number of in-flight downloads
type ActiveCounter interface {
	ActiveCount() int
}

// HealthHandler handles health check requests
type HealthHandler struct {
	downloads ActiveCounter
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(downloads ActiveCounter, version string) *HealthHandler {
	return &HealthHandler{
		downloads: downloads,
		version:   version,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Active  int    `json:"active"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Active:  h.downloads.ActiveCount(),
	})
}
