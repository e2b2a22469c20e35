// internal/middleware/logging.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/story-txprep/internal/utils"
)

// RequestLogger writes one structured line per request. Bodies are never
// logged; they carry base64 file content.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"request_id":  utils.GetRequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_id":   utils.GetClientIDFromContext(c),
			"user_agent":  c.Request.UserAgent(),
		}
		if c.Request.URL.Path == "/health" {
			logrus.WithFields(fields).Debug("Request processed")
			return
		}
		logrus.WithFields(fields).Info("Request processed")
	}
}
