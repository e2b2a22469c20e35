// internal/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/services"
	"github.com/javajoker/story-txprep/internal/utils"
)

const probeTimeout = 5 * time.Second

// Prober reports the liveness of each chain endpoint.
type Prober interface {
	Probe(ctx context.Context) []services.EndpointStatus
}

type HealthHandler struct {
	prober    Prober
	network   *config.Network
	storeMode string
	version   string
	started   time.Time
}

func NewHealthHandler(prober Prober, network *config.Network, storeMode, version string) *HealthHandler {
	return &HealthHandler{
		prober:    prober,
		network:   network,
		storeMode: storeMode,
		version:   version,
		started:   time.Now(),
	}
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	endpoints := h.prober.Probe(ctx)
	status, code := "healthy", http.StatusOK
	if !anyHealthy(endpoints) {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":       status,
		"version":      h.version,
		"network":      h.network.Name,
		"contentStore": h.storeMode,
		"uptime":       time.Since(h.started).Round(time.Second).String(),
		"rpc":          endpoints,
	})
}

// GET /api/v1/network
func (h *HealthHandler) Network(c *gin.Context) {
	utils.SuccessResponse(c, h.network)
}

func anyHealthy(endpoints []services.EndpointStatus) bool {
	for _, e := range endpoints {
		if e.Healthy {
			return true
		}
	}
	return false
}
