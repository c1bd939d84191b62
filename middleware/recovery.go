package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recovery middleware recovers from panics and logs the error. A panic while
// serving a document route never takes the service down; the document keeps
// its last durable status and can be reprocessed.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				// Get request ID for the response body
				requestID := GetRequestID(c)

				// Log the panic with stack trace
				attrs := []any{
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				}
				if documentID := c.Param("id"); documentID != "" {
					attrs = append(attrs, "document_id", documentID)
				}
				logger.Error(c.Request.Context(), "panic recovered", attrs...)

				// Return 500 error
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "Internal server error",
					"request_id": requestID,
				})
			}
		}()

		c.Next()
	}
}
