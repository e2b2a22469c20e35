// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/story-txprep/internal/handlers"
	"github.com/javajoker/story-txprep/internal/i18n"
	"github.com/javajoker/story-txprep/internal/services"
	"github.com/javajoker/story-txprep/internal/utils"
)

// ClientIdentity reads an optional HS256 bearer token. A valid token's
// subject becomes the client id for rate limiting; without one the client
// is identified by IP. A present but invalid token is rejected. With no
// secret configured the header is ignored.
func ClientIdentity(secret string, errs *handlers.ErrorWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if secret == "" || authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			rejectToken(c, errs)
			return
		}

		subject, err := utils.ValidateClientToken(parts[1], secret)
		if err != nil {
			rejectToken(c, errs)
			return
		}

		c.Set(utils.ContextKeyClientID, "sub:"+subject)
		c.Next()
	}
}

func rejectToken(c *gin.Context, errs *handlers.ErrorWriter) {
	lang := utils.GetLangFromContext(c)
	errs.Write(c, services.NewValidationError(i18n.T(lang, i18n.KeyAuthInvalidToken), nil))
}
