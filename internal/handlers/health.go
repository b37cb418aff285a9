package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/restock/backend/internal/apierror"
	"github.com/JonnyWalker81/restock/backend/internal/logger"
)

const healthPingTimeout = 2 * time.Second

// PingFunc checks a dependency, typically the database connection.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	env  string
	ping PingFunc
}

// NewHealthHandler creates a health handler. A nil ping always reports ok.
func NewHealthHandler(env string, ping PingFunc) *HealthHandler {
	return &HealthHandler{env: env, ping: ping}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			logger.Ctx(c.Request.Context()).Warn("health check failed", logger.Err(err))
			apierror.WriteProblem(c, apierror.NewServiceUnavailableError(apierror.GetRequestID(c), 5))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"env":    h.env,
	})
}
