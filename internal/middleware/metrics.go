package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/univlabs/campus-portal-api/internal/service"
)

// Metrics records one duration observation per request, labeled with the
// route template rather than the raw path to keep cardinality bounded.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
