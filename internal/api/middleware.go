package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/metrics"
	"stockpulse/pkg/logger"
)

// requestMetrics records count and latency per matched route
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// requestLogger logs every request at debug and failed ones at warn
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if status >= http.StatusInternalServerError {
			log.Warnw("HTTP request failed", fields...)
			return
		}
		log.Debugw("HTTP request", fields...)
	}
}

// recovery turns handler panics into a 500 and reports them
func recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Errorw("Panic in HTTP handler", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
