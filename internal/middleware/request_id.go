// internal/middleware/request_id.go
package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/story-txprep/internal/utils"
)

const HeaderRequestID = "X-Request-ID"

var inboundRequestID = regexp.MustCompile(`^[A-Za-z0-9_\-]{8,64}$`)

// RequestID tags every request with req_<uuid>, or a well-formed inbound id,
// in the response header, the gin context and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if !inboundRequestID.MatchString(id) {
			id = "req_" + uuid.NewString()
		}

		c.Set(utils.ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(utils.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
