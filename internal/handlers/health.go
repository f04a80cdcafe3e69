package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/monitoring"
	"github.com/girishiitm/synergysphere/internal/routecache"
	"github.com/girishiitm/synergysphere/pkg/response"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Health runs the registered dependency probes and reports the aggregate
// status alongside the response cache state. Probe failures surface in the
// payload, not the HTTP code: load balancers keep routing while a degraded
// dependency recovers.
func Health(manager *routecache.Manager, health *monitoring.HealthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := gin.H{
			"status":        "ok",
			"cache_enabled": manager != nil && manager.Enabled(),
		}
		if health != nil {
			report := health.Evaluate(c.Request.Context())
			payload["status"] = string(report.Status)
			if report.Status == monitoring.StatusUp {
				payload["status"] = "ok"
			}
			payload["checks"] = report.Checks
		}
		response.Success(c, http.StatusOK, payload)
	}
}

// VersionInfo reports the running build.
func VersionInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"version": Version})
	}
}
