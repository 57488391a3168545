package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shivarajkarur/virukshaa-workforce-ledger/internal/workforce/metrics"
)

// Pinger checks the durable session store. Implemented by the
// repository session store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse reports service liveness and the session store state.
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Service      string    `json:"service"`
	Version      string    `json:"version"`
	SessionStore string    `json:"session_store,omitempty"`
}

// HealthHandler serves the health endpoints.
type HealthHandler struct {
	serviceName string
	version     string
	store       Pinger
}

// NewHealthHandler creates a health handler. store may be nil when the
// session store is disabled.
func NewHealthHandler(serviceName, version string, store Pinger) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		store:       store,
	}
}

// HealthCheck reports liveness and pings the session store.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	storeStatus := "disabled"
	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.store.Ping(pingCtx); err != nil {
			storeStatus = "down"
		} else {
			storeStatus = "up"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC(),
		Service:      h.serviceName,
		Version:      h.version,
		SessionStore: storeStatus,
	})
}

// Metrics exposes the sync core's counters for debugging.
func (h *HealthHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.Get())
}

// RegisterRoutes registers the health endpoints.
func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
	r.GET("/metricsz", h.Metrics)
}
