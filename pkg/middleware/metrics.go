package middleware

import (
	"bitwise74/portal-web/internal/metrics"
	"time"

	"github.com/gin-gonic/gin"
)

// NewMetricsMiddleware records every request by route pattern
func NewMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.RecordHTTPRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
