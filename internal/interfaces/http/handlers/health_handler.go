package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
)

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.  Readiness fans out
// to every registered dependency with a shared deadline.
type HealthHandler struct {
	checks  map[string]HealthChecker
	timeout time.Duration
	logger  logging.Logger
}

// NewHealthHandler builds the handler with named dependency checks.
func NewHealthHandler(checks map[string]HealthChecker, log logging.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 5 * time.Second, logger: log}
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			h.logger.Warn("Readiness check failed",
				logging.String("dependency", name), logging.Err(err))
			continue
		}
		results[name] = "ok"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "dependencies": results})
}
