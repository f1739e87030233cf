package server

import (
	"time"

	"auction-marketplace/internal/metrics"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// MetricsMiddleware records status code and latency for every request.
func MetricsMiddleware(recorder metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		recorder.RecordHTTPStatus(c.Writer.Status())
		recorder.RecordHTTPLatency(time.Since(start))
	}
}
