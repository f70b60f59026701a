package metrics

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware times every request and records it against
// wallet_rpc_duration_seconds, labeled by facet (game/payment) and
// operation, derived from the matched route.
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		facet, operation := routeLabels(c.FullPath())
		RPCDuration.WithLabelValues(facet, operation).Observe(time.Since(start).Seconds())
	}
}

// routeLabels splits a gin route pattern like "/api/v1/game/wallet/deposit"
// into ("game", "deposit") for metric labeling.
func routeLabels(path string) (facet, operation string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	facet = "unknown"
	operation = "unknown"
	for i, p := range parts {
		if p == "game" || p == "payment" {
			facet = p
			if i+2 < len(parts) {
				operation = parts[i+2]
			} else if i+1 < len(parts) {
				operation = parts[i+1]
			}
			break
		}
	}
	return facet, operation
}
