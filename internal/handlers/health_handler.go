package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves liveness. It answers 200 even while the backend
// breaker is open so the process is not restarted for an upstream outage.
type HealthHandler struct {
	activeSessions func() int
	backendState   func() string
}

func NewHealthHandler(activeSessions func() int, backendState func() string) *HealthHandler {
	return &HealthHandler{
		activeSessions: activeSessions,
		backendState:   backendState,
	}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	backend := h.backendState()
	status := "ok"
	if backend == "open" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"sessions": h.activeSessions(),
		"backend":  backend,
	})
}
