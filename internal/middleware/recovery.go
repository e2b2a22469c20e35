// internal/middleware/recovery.go
package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/story-txprep/internal/handlers"
	"github.com/javajoker/story-txprep/internal/services"
)

// Recovery turns a panic into an INTERNAL_ERROR envelope.
func Recovery(errs *handlers.ErrorWriter) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		errs.Write(c, services.NewInternalError(fmt.Errorf("panic: %v", recovered)))
	})
}
