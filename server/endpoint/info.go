package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BackendState reports the launcher status word and whether the backend
// has signalled readiness.
type BackendState func() (state string, ready bool)

// InfoConfig describes the service for the root route.
type InfoConfig struct {
	Name       string
	Version    string
	APIPrefix  string
	HealthPath string
}

// Info answers the root route with service information and the backend
// state. The edge itself is always "running" here.
func Info(cfg InfoConfig, backend BackendState) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, ready := "unknown", false
		if backend != nil {
			state, ready = backend()
		}
		c.JSON(http.StatusOK, gin.H{
			"name":    cfg.Name,
			"version": cfg.Version,
			"status":  "running",
			"api":     cfg.APIPrefix,
			"health":  cfg.HealthPath,
			"backend": gin.H{
				"state": state,
				"ready": ready,
			},
			"timestamp": now(),
		})
	}
}
