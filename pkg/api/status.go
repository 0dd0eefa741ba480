package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZentaChain/chatrelay/pkg/network"
)

// StatusResponse contains relay statistics
type StatusResponse struct {
	Success bool          `json:"success"`
	Stats   network.Stats `json:"stats"`
}

// HealthResponse contains process health information
type HealthResponse struct {
	Success    bool   `json:"success"`
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	Goroutines int    `json:"goroutines"`
}

// handleStatus handles GET /api/v1/status
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Success: true,
		Stats:   s.relay.GetStats(),
	})
}

// handleHealth handles GET /health and /api/v1/health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Success:    true,
		Status:     "healthy",
		Uptime:     time.Since(s.startedAt).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	})
}
