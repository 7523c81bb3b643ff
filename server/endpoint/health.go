package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/edgeshim/component"
)

// HealthPaths are the routes answered by Health.
var HealthPaths = []string{"/_health", "/healthz", "/health"}

// Health answers liveness probes. It always reports ok: the edge process is
// healthy as soon as it serves HTTP, whatever the backend is doing.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": now(),
		})
	}
}

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// Status reports the aggregated health of every component. Unlike Health it
// answers 503 when any component is unhealthy.
func Status(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := component.StatusHealthy
		var components []component.Health

		if checker != nil {
			components = checker(c.Request.Context())
			for _, ch := range components {
				if ch.Status == component.StatusUnhealthy {
					status = component.StatusUnhealthy
					break
				}
				if ch.Status == component.StatusDegraded {
					status = component.StatusDegraded
				}
			}
		}

		httpStatus := http.StatusOK
		if status == component.StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  now(),
			"components": components,
		})
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
