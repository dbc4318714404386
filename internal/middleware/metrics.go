package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classroll/classroll-api/internal/service"
)

// Metrics times every request and feeds the Prometheus collectors. The
// route template is used as the path label so /attendance/eligibility/:subject
// stays one series regardless of subject.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
