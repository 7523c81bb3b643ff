package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/edgeshim/errors"
	"github.com/kbukum/edgeshim/readiness"
)

// Ready answers readiness probes from the backend readiness flag: 200
// {"status":"ready"} once the backend is up, 503 {"status":"initializing"}
// before.
func Ready(r readiness.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r != nil && r.IsReady() {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": now()})
			return
		}
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    apperrors.StatusInitializing,
			"timestamp": now(),
		})
	}
}
