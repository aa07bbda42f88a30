package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/clipfetch/internal/telemetry"
)

// Metrics returns a gin middleware recording request rate, errors and
// duration. Paths are reported by route template to keep label cardinality
// bounded.
func Metrics(tel *telemetry.Telemetry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tel.Enabled() {
			c.Next()
			return
		}

		start := time.Now()
		tel.IncrementHTTPInFlight()
		defer tel.DecrementHTTPInFlight()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		tel.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
