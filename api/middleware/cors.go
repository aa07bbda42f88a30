package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Request and response headers shared with the handlers
const (
	ClientIDHeader   = "x-client-id"
	DownloadIDHeader = "X-Download-ID"
)

// CORS returns a gin middleware allowing the form page to be served from
// another origin
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+ClientIDHeader)
		h.Set("Access-Control-Expose-Headers", DownloadIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
