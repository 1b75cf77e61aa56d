package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sessionCounter interface {
	Len() int
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics  http.Handler
	sessions sessionCounter
}

// NewMetricsHandler constructs a metrics handler. A nil metrics handler
// disables the Prometheus endpoint.
func NewMetricsHandler(metrics http.Handler, sessions sessionCounter) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, sessions: sessions}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness along with the number of open console sessions.
func (h *MetricsHandler) Ready(c *gin.Context) {
	sessions := 0
	if h.sessions != nil {
		sessions = h.sessions.Len()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "sessions": sessions})
}
